package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetBell обработчик для GET /api/notifications - уведомления и счётчик непрочитанных.
func (h *Handler) GetBell(c *gin.Context) {
	bell, err := h.Notifications.Bell(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, bell)
}

// MarkAllRead обработчик для PUT /api/notifications - отметить все прочитанными.
func (h *Handler) MarkAllRead(c *gin.Context) {
	bell, err := h.Notifications.MarkAll(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, bell)
}

// OpenNotification обработчик для POST /api/notifications/:id/open.
func (h *Handler) OpenNotification(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Notifications.OpenByID(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BellStream обработчик для GET /api/notifications/stream - состояние колокольчика через SSE.
// Опрос останавливается, когда клиент закрывает соединение.
func (h *Handler) BellStream(c *gin.Context) {
	ctx := c.Request.Context()
	updates := h.Notifications.Watch(ctx, currentUser(c).ID)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case bell, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("bell", bell)
			return true
		}
	})
}
