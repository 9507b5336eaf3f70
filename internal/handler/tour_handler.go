package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

// ListTours обработчик для GET /api/tours - каталог с фильтрами.
func (h *Handler) ListTours(c *gin.Context) {
	var q service.CatalogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.Catalog.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTour обработчик для GET /api/tours/:id.
func (h *Handler) GetTour(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tour, err := h.Catalog.Tour(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, service.TourCard{Tour: *tour, DurationLabel: service.FormatDuration(tour.Duration)})
}

// TourDates обработчик для GET /api/tours/:id/dates.
func (h *Handler) TourDates(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	dates, err := h.Bookings.AvailableDates(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// TourAvailability обработчик для GET /api/tours/:id/availability.
func (h *Handler) TourAvailability(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	avail, err := h.Bookings.Availability(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, avail)
}

// Quote обработчик для GET /api/tours/:id/quote?guests=N.
func (h *Handler) Quote(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	guests, _ := strconv.Atoi(c.DefaultQuery("guests", "1"))
	q, err := h.Bookings.Quote(c.Request.Context(), id, guests)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, q)
}

// CreateBooking обработчик для POST /api/tours/:id/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var form service.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Bookings.Book(c.Request.Context(), currentUser(c).ID, id, form)
	if err != nil {
		if res != nil {
			h.respondError(c, err, &res.Notice)
			return
		}
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, res)
}
