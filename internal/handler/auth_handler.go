package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

// Login обработчик для POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		notice := service.Notice{Variant: service.VariantDestructive, Title: "Ошибка", Description: service.MsgInvalidCredentials}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "notice": notice})
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		if res != nil {
			h.respondError(c, err, &res.Notice)
			return
		}
		h.respondError(c, err, nil)
		return
	}
	h.setToken(c, res.Token)
	c.JSON(http.StatusOK, res)
}

// Register обработчик для POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		if res != nil {
			h.respondError(c, err, &res.Notice)
			return
		}
		h.respondError(c, err, nil)
		return
	}
	h.setToken(c, res.Token)
	c.JSON(http.StatusCreated, res)
}

// Logout обработчик для POST /api/auth/logout. Удаляет сессию и cookie.
func (h *Handler) Logout(c *gin.Context) {
	if token := h.token(c); token != "" {
		if err := h.Auth.Logout(c.Request.Context(), token); err != nil {
			h.respondError(c, err, nil)
			return
		}
	}
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CurrentSession обработчик для GET /api/session - возвращает пользователя сессии.
func (h *Handler) CurrentSession(c *gin.Context) {
	u := currentUser(c)
	if u.ID == 0 {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) setToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)
}
