package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

// ModerationQueue обработчик для GET /api/admin/tours.
func (h *Handler) ModerationQueue(c *gin.Context) {
	q, err := h.Moderation.Queue(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": q, "processing": h.Moderation.Processing()})
}

// ApproveTour обработчик для POST /api/admin/tours/:id/approve.
func (h *Handler) ApproveTour(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Moderation.Approve(c.Request.Context(), id)
	if err != nil {
		h.moderationError(c, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RejectTour обработчик для POST /api/admin/tours/:id/reject.
func (h *Handler) RejectTour(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Moderation.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.moderationError(c, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) moderationError(c *gin.Context, res *service.ModerationResult, err error) {
	if res != nil {
		h.respondError(c, err, &res.Notice)
		return
	}
	h.respondError(c, err, nil)
}
