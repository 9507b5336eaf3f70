package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/poll"
	"github.com/sirupsen/logrus"
)

// MessageView представляет сообщение чата с отметкой, своё оно или собеседника.
type MessageView struct {
	model.ChatMessage
	Own bool `json:"own"`
}

// ChatSnapshot представляет состояние окна чата, которое получает подписчик.
type ChatSnapshot struct {
	BookingID     int             `json:"booking_id"`
	Messages      []MessageView   `json:"messages"`
	Draft         string          `json:"draft"`
	Send          action.Snapshot `json:"send"`
	InputDisabled bool            `json:"input_disabled"`
	Error         string          `json:"error,omitempty"`
}

// ChatService создаёт окна чата по бронированию.
type ChatService struct {
	messages MessageStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewChatService создает новый сервис чата.
func NewChatService(messages MessageStore, interval time.Duration, m *metrics.Metrics, logger *logrus.Logger) *ChatService {
	return &ChatService{messages: messages, interval: interval, metrics: m, logger: logger}
}

// Messages возвращает сообщения бронирования в порядке сервера.
func (s *ChatService) Messages(ctx context.Context, bookingID, userID int) ([]MessageView, error) {
	list, err := s.messages.Messages(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	return markOwn(list, userID), nil
}

// Send отправляет сообщение и возвращает обновлённый список.
func (s *ChatService) Send(ctx context.Context, bookingID, userID int, text string) ([]MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.messages.Send(ctx, bookingID, userID, text); err != nil {
		return nil, err
	}
	return s.Messages(ctx, bookingID, userID)
}

func markOwn(list []model.ChatMessage, userID int) []MessageView {
	out := make([]MessageView, 0, len(list))
	for _, m := range list {
		out = append(out, MessageView{ChatMessage: m, Own: m.SenderID == userID})
	}
	return out
}

// Open открывает окно чата. Окно опрашивает сообщения, пока не вызван Close или не отменён ctx.
func (s *ChatService) Open(ctx context.Context, bookingID, userID int) *ChatRoom {
	r := &ChatRoom{
		svc:       s,
		bookingID: bookingID,
		userID:    userID,
		out:       make(chan ChatSnapshot, 1),
	}
	r.sub = poll.Subscribe(ctx, s.interval, func(ctx context.Context) ([]MessageView, error) {
		return s.Messages(ctx, bookingID, userID)
	},
		poll.WithName("chat"),
		poll.WithMetrics(s.metrics),
		poll.WithLogger(s.logger.WithField("booking_id", bookingID)),
	)
	if s.metrics != nil {
		s.metrics.ActiveStreams.WithLabelValues("chat").Inc()
	}
	go r.forward()
	return r
}

// ChatRoom представляет открытое окно чата одного пользователя по одному бронированию.
type ChatRoom struct {
	svc       *ChatService
	bookingID int
	userID    int
	sub       *poll.Subscription[[]MessageView]
	closeOnce sync.Once

	outMu  sync.Mutex
	out    chan ChatSnapshot
	closed bool

	mu       sync.Mutex
	draft    string
	messages []MessageView
	lastErr  error
	send     action.Action
}

// Updates отдаёт снимки окна: после каждого опроса и после изменения черновика или отправки.
// Канал закрывается после Close.
func (r *ChatRoom) Updates() <-chan ChatSnapshot {
	return r.out
}

func (r *ChatRoom) forward() {
	defer func() {
		r.outMu.Lock()
		r.closed = true
		close(r.out)
		r.outMu.Unlock()
	}()
	for res := range r.sub.Updates() {
		r.mu.Lock()
		if res.Err == nil {
			r.messages = res.Value
		}
		r.lastErr = res.Err
		r.mu.Unlock()
		r.publish()
	}
}

func (r *ChatRoom) publish() {
	snap := r.Snapshot()
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if r.closed {
		return
	}
	for {
		select {
		case r.out <- snap:
			return
		default:
		}
		select {
		case <-r.out:
		default:
		}
	}
}

// Snapshot возвращает текущее состояние окна.
func (r *ChatRoom) Snapshot() ChatSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ChatSnapshot{
		BookingID:     r.bookingID,
		Messages:      r.messages,
		Draft:         r.draft,
		Send:          r.send.Snapshot(),
		InputDisabled: r.send.State() == action.Pending,
	}
	if snap.Messages == nil {
		snap.Messages = []MessageView{}
	}
	if r.lastErr != nil {
		snap.Error = r.lastErr.Error()
	}
	return snap
}

// SetDraft меняет текст в поле ввода.
func (r *ChatRoom) SetDraft(text string) {
	r.mu.Lock()
	r.draft = text
	r.mu.Unlock()
	r.publish()
}

// Submit отправляет черновик. Черновик очищается только после успешной отправки,
// после чего список сообщений сразу перезапрашивается.
func (r *ChatRoom) Submit(ctx context.Context) error {
	r.mu.Lock()
	text := r.draft
	r.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if !r.send.Start() {
		return action.ErrInFlight
	}
	r.publish()

	err := r.svc.messages.Send(ctx, r.bookingID, r.userID, strings.TrimSpace(text))
	r.send.Finish(err)
	if err != nil {
		r.publish()
		return err
	}

	r.mu.Lock()
	if r.draft == text {
		r.draft = ""
	}
	r.mu.Unlock()
	r.publish()
	r.sub.Refresh()
	return nil
}

// Close останавливает опрос и прерывает незавершённый запрос.
func (r *ChatRoom) Close() {
	r.closeOnce.Do(func() {
		r.sub.Stop()
		if r.svc.metrics != nil {
			r.svc.metrics.ActiveStreams.WithLabelValues("chat").Dec()
		}
	})
}
