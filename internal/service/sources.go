package service

import (
	"context"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// Интерфейсы удалённых источников данных. Реализации находятся в пакете repository.

type TourStore interface {
	List(ctx context.Context, f model.TourFilter) (*model.ToursResponse, error)
	Create(ctx context.Context, tour model.CreateTourRequest) (*model.CreateTourResponse, error)
}

type BookingStore interface {
	TourDates(ctx context.Context, tourID int) ([]model.TourDate, error)
	UserBookings(ctx context.Context, userID int) ([]model.Booking, error)
	Create(ctx context.Context, b model.CreateBookingRequest) (*model.CreateBookingResponse, error)
	Confirm(ctx context.Context, bookingID int) error
	Cancel(ctx context.Context, bookingID int) error
}

type AvailabilitySource interface {
	Get(ctx context.Context, tourID int) (*model.TourAvailability, error)
}

type MessageStore interface {
	Messages(ctx context.Context, bookingID, userID int) ([]model.ChatMessage, error)
	Send(ctx context.Context, bookingID, senderID int, message string) error
}

type NotificationStore interface {
	Notifications(ctx context.Context, userID int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

type Moderator interface {
	Approve(ctx context.Context, tourID int) (*model.ModerationResponse, error)
	Reject(ctx context.Context, tourID int, reason string) (*model.ModerationResponse, error)
}

type UserStore interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.User, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	GetProfile(ctx context.Context, userID int) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.UpdateProfileResponse, error)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (*model.UploadResponse, error)
}
