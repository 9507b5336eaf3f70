package service

import (
	"context"
	"fmt"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
	"github.com/sirupsen/logrus"
)

// AuthResult представляет итог входа или регистрации.
type AuthResult struct {
	User     *model.User `json:"user,omitempty"`
	Token    string      `json:"-"`
	Redirect string      `json:"redirect,omitempty"`
	Notice   Notice      `json:"notice"`
}

// AuthService выполняет вход, регистрацию и выход.
type AuthService struct {
	users    UserStore
	sessions *session.Manager
	logger   *logrus.Logger
}

// NewAuthService создает новый сервис авторизации.
func NewAuthService(users UserStore, sessions *session.Manager, logger *logrus.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, logger: logger}
}

// HomeFor возвращает страницу, на которую попадает пользователь после входа.
func HomeFor(role model.Role) string {
	switch role {
	case model.RoleGuide:
		return "/guide"
	case model.RoleAdmin:
		return "/admin"
	}
	return "/dashboard"
}

// Login проверяет учётные данные и создаёт сессию. При ошибке перехода не происходит.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	user, err := s.users.Login(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("email", req.Email).Info("login rejected")
		return &AuthResult{Notice: failure(MsgInvalidCredentials)}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return s.start(ctx, *user, info("Добро пожаловать!", "Вы успешно вошли в систему"))
}

// Register создаёт аккаунт клиента или гида и сразу открывает сессию.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*AuthResult, error) {
	if req.Role == "" {
		req.Role = model.RoleClient
	}
	user, err := s.users.Register(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("email", req.Email).Warn("registration failed")
		return &AuthResult{Notice: failure(MsgRegistrationFailed)}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	return s.start(ctx, *user, info("Регистрация завершена!", "Добро пожаловать в ТурГид"))
}

func (s *AuthService) start(ctx context.Context, user model.User, notice Notice) (*AuthResult, error) {
	_, token, err := s.sessions.Start(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: &user, Token: token, Redirect: HomeFor(user.Role), Notice: notice}, nil
}

// Logout завершает сессию.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.End(ctx, token)
}
