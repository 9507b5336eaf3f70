package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

type bookingView struct {
	model.Booking
	Actions []string `json:"actions"`
}

type bookingsView struct {
	Upcoming  []bookingView `json:"upcoming"`
	Completed []bookingView `json:"completed"`
	Cancelled []bookingView `json:"cancelled"`
}

func withActions(list []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, bookingView{Booking: b, Actions: service.AllowedActions(b.Status)})
	}
	return out
}

func toBookingsView(g *service.ClientBookings) bookingsView {
	return bookingsView{
		Upcoming:  withActions(g.Upcoming),
		Completed: withActions(g.Completed),
		Cancelled: withActions(g.Cancelled),
	}
}

// ListBookings обработчик для GET /api/bookings - бронирования пользователя по вкладкам.
func (h *Handler) ListBookings(c *gin.Context) {
	g, err := h.Bookings.ClientBookings(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, toBookingsView(g))
}

// ConfirmBooking обработчик для POST /api/guide/bookings/:id/confirm.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	notice, err := h.Bookings.Confirm(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, &notice)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

// CancelBooking обработчик для POST /api/bookings/:id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	g, err := h.Bookings.Cancel(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, toBookingsView(g))
}
