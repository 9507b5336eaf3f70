package model

// ChatMessage представляет сообщение в чате бронирования между клиентом и гидом.
type ChatMessage struct {
	ID           int    `json:"id"`
	BookingID    int    `json:"booking_id"`
	SenderID     int    `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar"`
	Message      string `json:"message"`
	IsRead       bool   `json:"is_read"`
	CreatedAt    string `json:"created_at"`
}

type NotificationType string

const (
	NotificationBooking NotificationType = "booking"
	NotificationMessage NotificationType = "message"
	NotificationReview  NotificationType = "review"
	NotificationSystem  NotificationType = "system"
)

// Notification представляет уведомление пользователя (бронирование, сообщение, отзыв, системное).
type Notification struct {
	ID        int              `json:"id"`
	UserID    int              `json:"user_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      *string          `json:"link"`
	IsRead    bool             `json:"is_read"`
	CreatedAt string           `json:"created_at"`
}
