package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RoleAnonymous обозначает роль запроса без сессии в политике доступа.
const RoleAnonymous = "anonymous"

// Logger пишет по строке на каждый запрос.
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"client_ip": c.ClientIP(),
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
		})
		if u := currentUser(c); u.ID != 0 {
			entry = entry.WithField("user_id", u.ID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request")
			return
		}
		entry.Info("request")
	}
}

// Session находит сессию по cookie или заголовку Authorization и кладёт её в контекст запроса.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := h.token(c)
		if token != "" {
			s, err := h.sessions.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
			}
		}
		c.Next()
	}
}

func (h *Handler) token(c *gin.Context) string {
	if t, err := c.Cookie(h.cookie.Name); err == nil && t != "" {
		return t
	}
	if bearer := c.GetHeader("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimPrefix(bearer, "Bearer ")
	}
	return ""
}

// Authorize проверяет доступ роли к пути по политике casbin.
func Authorize(e *casbin.Enforcer, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleAnonymous
		if u := currentUser(c); u.ID != 0 {
			role = string(u.Role)
		}

		ok, err := e.EnforceSafe(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			logger.WithError(err).Error("enforce error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Ошибка проверки доступа"})
			return
		}
		if ok {
			c.Next()
			return
		}
		if role == RoleAnonymous {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется вход в систему"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Недостаточно прав"})
	}
}

// RateLimiter ограничивает частоту запросов с одного IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создаёт ограничитель: perSecond запросов в секунду с запасом burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Limit возвращает middleware с ответом 429 при превышении лимита.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Слишком много попыток. Попробуйте позже."})
			return
		}
		c.Next()
	}
}
