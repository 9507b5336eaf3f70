package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/repository"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Services содержит сервисы, которые обслуживают HTTP-запросы.
type Services struct {
	Catalog       *service.CatalogService
	Bookings      *service.BookingService
	Chat          *service.ChatService
	Notifications *service.NotificationService
	TourForm      *service.TourFormService
	Moderation    *service.ModerationService
	Auth          *service.AuthService
	Profile       *service.ProfileService
}

// CookieConfig содержит параметры cookie с токеном сессии.
type CookieConfig struct {
	Name   string
	MaxAge int
	Secure bool
}

// Handler структурирует зависимости сервисов для обработки HTTP-запросов.
type Handler struct {
	Services
	sessions     *session.Manager
	cookie       CookieConfig
	maxFileBytes int64
	logger       *logrus.Logger
}

// NewHandler создает новый Handler с внедрением зависимостей (сервисов).
func NewHandler(s Services, sessions *session.Manager, cookie CookieConfig, maxFileBytes int64, logger *logrus.Logger) *Handler {
	return &Handler{
		Services:     s,
		sessions:     sessions,
		cookie:       cookie,
		maxFileBytes: maxFileBytes,
		logger:       logger,
	}
}

// Health обработчик для GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentUser возвращает пользователя сессии. Маршруты без сессии отсекает RBAC.
func currentUser(c *gin.Context) model.User {
	s, _ := session.FromContext(c.Request.Context())
	if s == nil {
		return model.User{}
	}
	return s.User
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный параметр " + name})
		return 0, false
	}
	return id, true
}

// errorStatus сопоставляет ошибку с HTTP-кодом ответа.
func errorStatus(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, action.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrTourNotFound), errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	if code := repository.StatusCode(err); code >= 400 && code < 500 {
		return code
	}
	if repository.StatusCode(err) != 0 {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError отдаёт ошибку вместе с уведомлением для пользователя.
func (h *Handler) respondError(c *gin.Context, err error, notice *service.Notice) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}

	body := gin.H{"error": err.Error()}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if notice != nil {
		body["notice"] = notice
	} else {
		body["notice"] = service.Notice{Variant: service.VariantDestructive, Title: "Ошибка", Description: err.Error()}
	}
	c.JSON(status, body)
}
