package handler

import (
	"time"

	"github.com/casbin/casbin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterConfig содержит настройки маршрутизатора.
type RouterConfig struct {
	AllowedOrigins []string
	LoginRate      float64
	LoginBurst     int
	Enforcer       *casbin.Enforcer
	Gatherer       prometheus.Gatherer
	Logger         *logrus.Logger
}

// NewRouter настраивает маршруты API.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), Logger(cfg.Logger))
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))
	router.Use(h.Session(), Authorize(cfg.Enforcer, cfg.Logger))

	router.GET("/health", h.Health)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")

	limiter := NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	auth := api.Group("/auth")
	{
		auth.POST("/login", limiter.Limit(), h.Login)
		auth.POST("/register", limiter.Limit(), h.Register)
		auth.POST("/logout", h.Logout)
	}
	api.GET("/session", h.CurrentSession)

	tours := api.Group("/tours")
	{
		tours.GET("", h.ListTours)
		tours.GET("/:id", h.GetTour)
		tours.GET("/:id/dates", h.TourDates)
		tours.GET("/:id/availability", h.TourAvailability)
		tours.GET("/:id/quote", h.Quote)
		tours.POST("/:id/bookings", h.CreateBooking)
	}

	bookings := api.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.GET("/:id/messages", h.ListMessages)
		bookings.POST("/:id/messages", h.SendMessage)
		bookings.GET("/:id/chat", h.ChatStream)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.GetBell)
		notifications.PUT("", h.MarkAllRead)
		notifications.GET("/stream", h.BellStream)
		notifications.POST("/:id/open", h.OpenNotification)
	}

	profile := api.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.POST("/telegram-link", h.TelegramLink)
	}

	api.POST("/guide/bookings/:id/confirm", h.ConfirmBooking)

	guide := api.Group("/guide/draft")
	{
		guide.GET("", h.GetDraft)
		guide.PUT("", h.UpdateDraft)
		guide.DELETE("", h.DiscardDraft)
		guide.POST("/images", h.UploadImages)
		guide.POST("/images/move", h.MoveImage)
		guide.DELETE("/images/:index", h.RemoveImage)
		guide.POST("/submit", h.SubmitDraft)
	}

	admin := api.Group("/admin/tours")
	{
		admin.GET("", h.ModerationQueue)
		admin.POST("/:id/approve", h.ApproveTour)
		admin.POST("/:id/reject", h.RejectTour)
	}

	return router
}
