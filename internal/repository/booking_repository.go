package repository

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// BookingRepository обеспечивает доступ к удалённому сервису бронирований.
type BookingRepository struct {
	remote *remote
}

// NewBookingRepository создает новый репозиторий для бронирований.
func NewBookingRepository(c *Client, endpoint string) *BookingRepository {
	return &BookingRepository{remote: c.remote("bookings", endpoint)}
}

// TourDates возвращает даты, на которые тур можно забронировать.
func (r *BookingRepository) TourDates(ctx context.Context, tourID int) ([]model.TourDate, error) {
	var resp struct {
		Dates []model.TourDate `json:"dates"`
	}
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "tour_dates", "tour_id", strconv.Itoa(tourID)),
		fallback: "Failed to fetch tour dates",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Dates == nil {
		resp.Dates = []model.TourDate{}
	}
	return resp.Dates, nil
}

// UserBookings возвращает бронирования пользователя.
func (r *BookingRepository) UserBookings(ctx context.Context, userID int) ([]model.Booking, error) {
	var resp struct {
		Bookings []model.Booking `json:"bookings"`
	}
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "user_bookings"),
		userID:   userID,
		fallback: "Failed to fetch user bookings",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Bookings == nil {
		resp.Bookings = []model.Booking{}
	}
	return resp.Bookings, nil
}

// Create создает новую заявку на бронирование.
func (r *BookingRepository) Create(ctx context.Context, b model.CreateBookingRequest) (*model.CreateBookingResponse, error) {
	var resp model.CreateBookingResponse
	err := r.remote.call(ctx, request{
		method:   http.MethodPost,
		body:     b,
		fallback: "Failed to create booking",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Confirm просит сервис подтвердить бронирование.
func (r *BookingRepository) Confirm(ctx context.Context, bookingID int) error {
	return r.updateStatus(ctx, bookingID, "confirm", "Failed to confirm booking")
}

// Cancel просит сервис отменить бронирование.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int) error {
	return r.updateStatus(ctx, bookingID, "cancel", "Failed to cancel booking")
}

func (r *BookingRepository) updateStatus(ctx context.Context, bookingID int, action, fallback string) error {
	return r.remote.call(ctx, request{
		method: http.MethodPut,
		body: map[string]any{
			"booking_id": bookingID,
			"action":     action,
		},
		fallback: fallback,
	}, nil)
}
