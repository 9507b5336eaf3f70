package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

// GetProfile обработчик для GET /api/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profile.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile обработчик для PUT /api/profile. ID пользователя берётся из сессии.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.Profile.Update(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": p,
		"notice":  service.Notice{Variant: service.VariantDefault, Title: "Профиль обновлён"},
	})
}

// TelegramLink обработчик для POST /api/profile/telegram-link.
func (h *Handler) TelegramLink(c *gin.Context) {
	link, err := h.Profile.TelegramLink(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, link)
}
