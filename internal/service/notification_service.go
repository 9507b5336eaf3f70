package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/poll"
	"github.com/sirupsen/logrus"
)

// NotificationView представляет уведомление с иконкой для колокольчика.
type NotificationView struct {
	model.Notification
	Icon string `json:"icon"`
}

// Bell представляет состояние колокольчика уведомлений.
type Bell struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int                `json:"unread_count"`
	Badge         string             `json:"badge"`
	Error         string             `json:"error,omitempty"`
}

// OpenResult описывает, что произошло при открытии уведомления.
type OpenResult struct {
	Link string `json:"link,omitempty"`
	Bell *Bell  `json:"bell"`
}

// BadgeLabel возвращает текст на значке: пусто для нуля, "9+" для больших чисел.
func BadgeLabel(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 9:
		return "9+"
	}
	return strconv.Itoa(unread)
}

// IconFor возвращает имя иконки для типа уведомления.
func IconFor(t model.NotificationType) string {
	switch t {
	case model.NotificationBooking:
		return "Calendar"
	case model.NotificationMessage:
		return "MessageCircle"
	case model.NotificationReview:
		return "Star"
	}
	return "Bell"
}

func newBell(list []model.Notification, unread int) *Bell {
	b := &Bell{
		Notifications: make([]NotificationView, 0, len(list)),
		UnreadCount:   unread,
		Badge:         BadgeLabel(unread),
	}
	for _, n := range list {
		b.Notifications = append(b.Notifications, NotificationView{Notification: n, Icon: IconFor(n.Type)})
	}
	return b
}

// NotificationService реализует колокольчик уведомлений.
type NotificationService struct {
	store    NotificationStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewNotificationService создает новый сервис уведомлений.
func NewNotificationService(store NotificationStore, interval time.Duration, m *metrics.Metrics, logger *logrus.Logger) *NotificationService {
	return &NotificationService{store: store, interval: interval, metrics: m, logger: logger}
}

// Bell загружает список уведомлений и число непрочитанных.
func (s *NotificationService) Bell(ctx context.Context, userID int) (*Bell, error) {
	list, err := s.store.Notifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newBell(list, unread), nil
}

// Open открывает уведомление. Для непрочитанного выполняется ровно одна отметка
// о прочтении и повторная загрузка; прочитанное открывается без запросов.
func (s *NotificationService) Open(ctx context.Context, userID int, n model.Notification) (*OpenResult, error) {
	res := &OpenResult{}
	if n.Link != nil {
		res.Link = *n.Link
	}
	if n.IsRead {
		return res, nil
	}
	if err := s.store.MarkRead(ctx, n.ID); err != nil {
		return nil, err
	}
	bell, err := s.Bell(ctx, userID)
	if err != nil {
		return nil, err
	}
	res.Bell = bell
	return res, nil
}

// OpenByID ищет уведомление пользователя по ID и открывает его.
func (s *NotificationService) OpenByID(ctx context.Context, userID, notificationID int) (*OpenResult, error) {
	list, err := s.store.Notifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, n := range list {
		if n.ID == notificationID {
			return s.Open(ctx, userID, n)
		}
	}
	return nil, ErrNotificationNotFound
}

// MarkAll отмечает все уведомления прочитанными и возвращает обновлённое состояние.
func (s *NotificationService) MarkAll(ctx context.Context, userID int) (*Bell, error) {
	if err := s.store.MarkAllRead(ctx, userID); err != nil {
		return nil, err
	}
	return s.Bell(ctx, userID)
}

// Watch запускает две независимые подписки (список и счётчик) и сводит их в поток состояний колокольчика.
// Поток закрывается, когда отменён ctx.
func (s *NotificationService) Watch(ctx context.Context, userID int) <-chan Bell {
	log := s.logger.WithField("user_id", userID)
	list := poll.Subscribe(ctx, s.interval, func(ctx context.Context) ([]model.Notification, error) {
		return s.store.Notifications(ctx, userID)
	}, poll.WithName("notifications"), poll.WithMetrics(s.metrics), poll.WithLogger(log))
	count := poll.Subscribe(ctx, s.interval, func(ctx context.Context) (int, error) {
		return s.store.UnreadCount(ctx, userID)
	}, poll.WithName("unread_count"), poll.WithMetrics(s.metrics), poll.WithLogger(log))

	if s.metrics != nil {
		s.metrics.ActiveStreams.WithLabelValues("notifications").Inc()
	}

	out := make(chan Bell, 1)
	go func() {
		defer close(out)
		defer func() {
			list.Stop()
			count.Stop()
			if s.metrics != nil {
				s.metrics.ActiveStreams.WithLabelValues("notifications").Dec()
			}
		}()

		current := Bell{Notifications: []NotificationView{}}
		var listErr, countErr error
		listCh, countCh := list.Updates(), count.Updates()
		for listCh != nil || countCh != nil {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-listCh:
				if !ok {
					listCh = nil
					continue
				}
				if r.Err == nil {
					current.Notifications = newBell(r.Value, 0).Notifications
				}
				listErr = r.Err
			case r, ok := <-countCh:
				if !ok {
					countCh = nil
					continue
				}
				if r.Err == nil {
					current.UnreadCount = r.Value
					current.Badge = BadgeLabel(r.Value)
				}
				countErr = r.Err
			}
			// ошибки обоих опросов
			current.Error = errText(errors.Join(listErr, countErr))

			select {
			case <-out:
			default:
			}
			select {
			case out <- current:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
