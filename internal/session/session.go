// Package session хранит снимок авторизованного пользователя между запросами.
// Сессия создаётся при входе и удаляется при выходе; компоненты получают её
// через контекст запроса, а не читают хранилище сами.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

var (
	ErrNoSession   = errors.New("session not found")
	ErrInvalidCode = errors.New("link code not found or expired")
)

// Session представляет снимок пользователя (ключ `user` во фронтенде).
type Session struct {
	ID        string     `json:"id"`
	User      model.User `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store представляет хранилище сессий и одноразовых кодов привязки Telegram.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	PutCode(ctx context.Context, code string, userID int, ttl time.Duration) error
	TakeCode(ctx context.Context, code string) (int, error)
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager выдаёт подписанный authToken и управляет жизненным циклом сессии.
type Manager struct {
	store   Store
	secret  []byte
	ttl     time.Duration
	codeTTL time.Duration
	now     func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{
		store:   store,
		secret:  []byte(secret),
		ttl:     ttl,
		codeTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

// Start создаёт сессию для пользователя и возвращает токен.
func (m *Manager) Start(ctx context.Context, user model.User) (*Session, string, error) {
	now := m.now()
	s := &Session{ID: uuid.NewString(), User: user, CreatedAt: now}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, "", fmt.Errorf("не удалось сохранить сессию: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("не удалось подписать токен: %w", err)
	}
	return s, signed, nil
}

// Resolve проверяет токен и загружает сессию.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	id, err := m.sessionID(token)
	if err != nil {
		return nil, err
	}
	return m.store.Load(ctx, id)
}

// End удаляет сессию. Невалидный токен означает, что сессии уже нет.
func (m *Manager) End(ctx context.Context, token string) error {
	id, err := m.sessionID(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) sessionID(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if c.ID == "" {
		return "", ErrNoSession
	}
	return c.ID, nil
}

// IssueLinkCode выдаёт одноразовый код для команды /start в Telegram.
func (m *Manager) IssueLinkCode(ctx context.Context, userID int) (string, error) {
	code := uuid.NewString()
	if err := m.store.PutCode(ctx, code, userID, m.codeTTL); err != nil {
		return "", fmt.Errorf("не удалось сохранить код привязки: %w", err)
	}
	return code, nil
}

// RedeemLinkCode возвращает пользователя по коду и удаляет код.
func (m *Manager) RedeemLinkCode(ctx context.Context, code string) (int, error) {
	return m.store.TakeCode(ctx, code)
}

type ctxKey struct{}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext достаёт сессию из контекста.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
