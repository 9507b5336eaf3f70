package repository

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// ChatRepository обеспечивает доступ к сообщениям чата и уведомлениям.
type ChatRepository struct {
	remote *remote
}

// NewChatRepository создает новый репозиторий сообщений.
func NewChatRepository(c *Client, endpoint string) *ChatRepository {
	return &ChatRepository{remote: c.remote("chat", endpoint)}
}

// Messages возвращает сообщения бронирования в том порядке, в котором их отдал сервер.
func (r *ChatRepository) Messages(ctx context.Context, bookingID, userID int) ([]model.ChatMessage, error) {
	var resp struct {
		Messages []model.ChatMessage `json:"messages"`
	}
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "messages", "booking_id", strconv.Itoa(bookingID)),
		userID:   userID,
		fallback: "Failed to fetch messages",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		resp.Messages = []model.ChatMessage{}
	}
	return resp.Messages, nil
}

// Send сохраняет новое сообщение чата.
func (r *ChatRepository) Send(ctx context.Context, bookingID, senderID int, message string) error {
	return r.remote.call(ctx, request{
		method: http.MethodPost,
		query:  query("action", "send_message"),
		body: map[string]any{
			"booking_id": bookingID,
			"sender_id":  senderID,
			"message":    message,
		},
		fallback: "Failed to send message",
	}, nil)
}

func (r *ChatRepository) Notifications(ctx context.Context, userID int) ([]model.Notification, error) {
	var resp struct {
		Notifications []model.Notification `json:"notifications"`
	}
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "notifications"),
		userID:   userID,
		fallback: "Failed to fetch notifications",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		resp.Notifications = []model.Notification{}
	}
	return resp.Notifications, nil
}

func (r *ChatRepository) UnreadCount(ctx context.Context, userID int) (int, error) {
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "unread_count"),
		userID:   userID,
		fallback: "Failed to fetch unread count",
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, notificationID int) error {
	return r.remote.call(ctx, request{
		method:   http.MethodPut,
		query:    query("action", "mark_read"),
		body:     map[string]any{"notification_id": notificationID},
		fallback: "Failed to mark notification as read",
	}, nil)
}

func (r *ChatRepository) MarkAllRead(ctx context.Context, userID int) error {
	return r.remote.call(ctx, request{
		method:   http.MethodPut,
		query:    query("action", "mark_all_read"),
		userID:   userID,
		fallback: "Failed to mark all notifications as read",
	}, nil)
}
