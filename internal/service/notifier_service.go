package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/poll"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
	"github.com/sirupsen/logrus"
)

// LinkStore хранит привязки чатов Telegram к пользователям.
type LinkStore interface {
	Link(ctx context.Context, userID int, chatID int64) error
	UnlinkChat(ctx context.Context, chatID int64) (bool, error)
	List(ctx context.Context) ([]model.TelegramLink, error)
	MarkDelivered(ctx context.Context, userID, notificationID int) error
}

// LinkCodes погашает одноразовые коды привязки.
type LinkCodes interface {
	RedeemLinkCode(ctx context.Context, code string) (int, error)
}

// Sender отправляет текст в чат Telegram.
type Sender interface {
	Send(chatID int64, text string) error
}

// Ответы бота.
const (
	ReplyLinked     = "Готово! Уведомления ТурГид будут приходить в этот чат."
	ReplyBadCode    = "Ссылка устарела или уже использована. Получите новую в профиле на сайте."
	ReplyNoCode     = "Откройте бота по ссылке из профиля на сайте, чтобы привязать аккаунт."
	ReplyUnlinked   = "Уведомления отключены. Чтобы включить их снова, получите ссылку в профиле."
	ReplyNotLinked  = "Этот чат не привязан к аккаунту."
	ReplyLinkFailed = "Не удалось привязать аккаунт. Попробуйте позже."
)

// NotifierService пересылает уведомления платформы в Telegram.
type NotifierService struct {
	links         LinkStore
	codes         LinkCodes
	users         UserStore
	notifications NotificationStore
	sender        Sender
	metrics       *metrics.Metrics
	logger        *logrus.Logger
}

// NewNotifierService создает новый сервис уведомлений в Telegram.
func NewNotifierService(links LinkStore, codes LinkCodes, users UserStore, notifications NotificationStore,
	sender Sender, m *metrics.Metrics, logger *logrus.Logger) *NotifierService {
	return &NotifierService{
		links:         links,
		codes:         codes,
		users:         users,
		notifications: notifications,
		sender:        sender,
		metrics:       m,
		logger:        logger,
	}
}

// Link привязывает чат по коду из команды /start и возвращает ответ бота.
func (s *NotifierService) Link(ctx context.Context, code string, chatID int64) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ReplyNoCode
	}
	userID, err := s.codes.RedeemLinkCode(ctx, code)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidCode) {
			s.logger.WithError(err).Error("redeem link code")
			return ReplyLinkFailed
		}
		return ReplyBadCode
	}
	// чат мог быть привязан к другому аккаунту
	if _, err := s.links.UnlinkChat(ctx, chatID); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("unlink before link")
		return ReplyLinkFailed
	}
	if err := s.links.Link(ctx, userID, chatID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("link telegram chat")
		return ReplyLinkFailed
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "chat_id": chatID}).Info("telegram chat linked")
	return ReplyLinked
}

// Unlink отвязывает чат по команде /stop.
func (s *NotifierService) Unlink(ctx context.Context, chatID int64) string {
	ok, err := s.links.UnlinkChat(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("unlink telegram chat")
		return ReplyLinkFailed
	}
	if !ok {
		return ReplyNotLinked
	}
	return ReplyUnlinked
}

// Sweep проходит по привязанным пользователям и отправляет непрочитанные уведомления,
// которые ещё не пересылались. Возвращает число отправленных сообщений.
func (s *NotifierService) Sweep(ctx context.Context) (int, error) {
	links, err := s.links.List(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		n, err := s.deliver(ctx, link)
		sent += n
		if err != nil {
			s.logger.WithError(err).WithField("user_id", link.UserID).Warn("telegram delivery failed")
		}
	}
	return sent, nil
}

func (s *NotifierService) deliver(ctx context.Context, link model.TelegramLink) (int, error) {
	profile, err := s.users.GetProfile(ctx, link.UserID)
	if err != nil {
		return 0, err
	}
	if profile.TelegramNotifications == nil || !*profile.TelegramNotifications {
		return 0, nil
	}

	list, err := s.notifications.Notifications(ctx, link.UserID)
	if err != nil {
		return 0, err
	}
	fresh := make([]model.Notification, 0, len(list))
	for _, n := range list {
		if !n.IsRead && n.ID > link.LastNotificationID {
			fresh = append(fresh, n)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })

	sent := 0
	for _, n := range fresh {
		if err := s.sender.Send(link.ChatID, FormatTelegram(n)); err != nil {
			return sent, err
		}
		if err := s.links.MarkDelivered(ctx, link.UserID, n.ID); err != nil {
			return sent, err
		}
		sent++
		if s.metrics != nil {
			s.metrics.TelegramSent.Inc()
		}
	}
	return sent, nil
}

// FormatTelegram собирает текст сообщения для Telegram.
func FormatTelegram(n model.Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(n.Message)
	}
	return b.String()
}

// Run опрашивает уведомления раз в interval, пока не отменён ctx.
func (s *NotifierService) Run(ctx context.Context, interval time.Duration) {
	sub := poll.Subscribe(ctx, interval, s.Sweep,
		poll.WithName("telegram"),
		poll.WithMetrics(s.metrics),
		poll.WithLogger(logrus.NewEntry(s.logger)),
	)
	defer sub.Stop()
	for res := range sub.Updates() {
		if res.Err == nil && res.Value > 0 {
			s.logger.WithField("sent", res.Value).Info("telegram notifications forwarded")
		}
	}
}
