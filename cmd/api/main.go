package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/config"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/handler"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/repository"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Некорректная конфигурация: %v", err)
	}
	logger := config.NewLogger(cfg.Logging)
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Сессии храним в Redis, без него работаем в памяти процесса
	var store session.Store
	redisClient := session.NewRedisClient(cfg.Redis)
	if err := session.Ping(context.Background(), redisClient); err != nil {
		logger.WithError(err).Warn("Redis недоступен, сессии хранятся в памяти")
		store = session.NewMemoryStore()
	} else {
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient)
	}
	sessions := session.NewManager(store, cfg.Session.Secret, cfg.Session.TTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Репозитории удалённых функций
	client := repository.NewClient(&http.Client{Timeout: cfg.HTTP.RequestTimeout}, logger, m)
	tourRepo := repository.NewTourRepository(client, cfg.Endpoints.Tours)
	bookingRepo := repository.NewBookingRepository(client, cfg.Endpoints.Bookings)
	availabilityRepo := repository.NewAvailabilityRepository(client, cfg.Endpoints.Availability)
	chatRepo := repository.NewChatRepository(client, cfg.Endpoints.Chat)
	moderationRepo := repository.NewModerationRepository(client, cfg.Endpoints.Moderation)
	userRepo := repository.NewUserRepository(client, cfg.Endpoints.Auth)
	uploadRepo := repository.NewUploadRepository(client, cfg.Endpoints.Upload)

	// Сервисы
	catalog := service.NewCatalogService(tourRepo)
	services := handler.Services{
		Catalog:       catalog,
		Bookings:      service.NewBookingService(bookingRepo, availabilityRepo, catalog, logger),
		Chat:          service.NewChatService(chatRepo, cfg.Polling.Chat, m, logger),
		Notifications: service.NewNotificationService(chatRepo, cfg.Polling.Notifications, m, logger),
		TourForm:      service.NewTourFormService(tourRepo, uploadRepo, cfg.Upload.MaxImages, cfg.Upload.MaxFileBytes, m, logger),
		Moderation:    service.NewModerationService(catalog, moderationRepo),
		Auth:          service.NewAuthService(userRepo, sessions, logger),
		Profile:       service.NewProfileService(userRepo, sessions, cfg.Telegram.BotUsername),
	}

	enforcer, err := casbin.NewEnforcerSafe(cfg.RBAC.ModelPath, cfg.RBAC.PolicyPath)
	if err != nil {
		logger.Fatalf("Не удалось загрузить политику доступа: %v", err)
	}

	h := handler.NewHandler(services, sessions, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: int(cfg.Session.TTL.Seconds()),
		Secure: cfg.Session.Secure,
	}, cfg.Upload.MaxFileBytes, logger)
	router := handler.NewRouter(h, handler.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		LoginRate:      cfg.HTTP.LoginRate,
		LoginBurst:     cfg.HTTP.LoginBurst,
		Enforcer:       enforcer,
		Gatherer:       reg,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Сервер %s слушает порт %s", cfg.App.Name, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Получен сигнал остановки, завершаем работу")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Сервер остановлен принудительно: %v", err)
	}
	services.TourForm.Close()
	logger.Info("Сервер остановлен")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
