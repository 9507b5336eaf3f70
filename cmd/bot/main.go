package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/config"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/repository"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL драйвер
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "путь к файлу конфигурации")
	migrationsDir := flag.String("migrations", "migrations", "каталог с SQL-миграциями")
	metricsAddr := flag.String("metrics-addr", ":9091", "адрес для /metrics")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Некорректная конфигурация: %v", err)
	}
	logger := config.NewLogger(cfg.Logging)

	db, err := sqlx.Connect("postgres", cfg.Database.PostgresDSN())
	if err != nil {
		logger.Fatalf("Не удалось подключиться к базе данных: %v", err)
	}
	defer db.Close()
	migrate(db, *migrationsDir, logger)

	// Коды привязки выдаёт API, поэтому без общего Redis бот работать не может
	redisClient := session.NewRedisClient(cfg.Redis)
	if err := session.Ping(context.Background(), redisClient); err != nil {
		logger.Fatalf("Redis недоступен: %v", err)
	}
	defer redisClient.Close()
	sessions := session.NewManager(session.NewRedisStore(redisClient), cfg.Session.Secret, cfg.Session.TTL)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics endpoint stopped")
		}
	}()

	if cfg.Telegram.BotToken == "" {
		logger.Fatal("Не указан токен бота (BOT_TOKEN)")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatalf("Ошибка инициализации бота: %v", err)
	}
	bot.Debug = cfg.Telegram.Debug
	logger.Infof("Запущен бот %s", bot.Self.UserName)

	client := repository.NewClient(&http.Client{Timeout: cfg.HTTP.RequestTimeout}, logger, m)
	notifier := service.NewNotifierService(
		repository.NewTelegramLinkRepository(db),
		sessions,
		repository.NewUserRepository(client, cfg.Endpoints.Auth),
		repository.NewChatRepository(client, cfg.Endpoints.Chat),
		botSender{bot: bot},
		m,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go notifier.Run(ctx, cfg.Polling.Notifications)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info("Бот остановлен")
			return
		case update := <-updates:
			text := reply(ctx, notifier, update.Message)
			if text == "" {
				continue
			}
			if _, err := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, text)); err != nil {
				logger.WithError(err).WithField("chat_id", update.Message.Chat.ID).Warn("reply failed")
			}
		}
	}
}

// migrate применяет SQL-файлы из каталога по порядку, каждый в своей транзакции.
func migrate(db *sqlx.DB, dir string, logger *logrus.Logger) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		logger.WithError(err).Warn("не удалось найти миграции")
		return
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.WithError(err).Errorf("Миграция %s не прочитана", file)
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			logger.WithError(err).Error("Ошибка при инициации транзакции миграции")
			continue
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			logger.WithError(err).Errorf("Миграция %s завершилась ошибкой", file)
			continue
		}
		if err := tx.Commit(); err != nil {
			logger.WithError(err).Errorf("Миграция %s не зафиксирована", file)
			continue
		}
		logger.Infof("Миграция %s применена.", file)
	}
}
