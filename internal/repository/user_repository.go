package repository

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// UserRepository обеспечивает доступ к профилям и авторизации пользователей.
type UserRepository struct {
	remote *remote
}

// NewUserRepository создаёт новый репозиторий пользователей.
func NewUserRepository(c *Client, endpoint string) *UserRepository {
	return &UserRepository{remote: c.remote("auth", endpoint)}
}

// GetProfile возвращает профиль пользователя по ID.
func (r *UserRepository) GetProfile(ctx context.Context, userID int) (*model.UserProfile, error) {
	var p model.UserProfile
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("user_id", strconv.Itoa(userID)),
		fallback: "Failed to fetch profile",
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile сохраняет изменённые поля профиля.
func (r *UserRepository) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.UpdateProfileResponse, error) {
	var resp model.UpdateProfileResponse
	err := r.remote.call(ctx, request{
		method:   http.MethodPut,
		body:     req,
		fallback: "Failed to update profile",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login проверяет email и пароль и возвращает снимок пользователя.
func (r *UserRepository) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	var resp model.AuthResponse
	err := r.remote.call(ctx, request{
		method: http.MethodPost,
		body: map[string]any{
			"action":   "login",
			"email":    req.Email,
			"password": req.Password,
		},
		fallback: "Ошибка входа",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register регистрирует нового клиента или гида.
func (r *UserRepository) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	var resp model.AuthResponse
	err := r.remote.call(ctx, request{
		method: http.MethodPost,
		body: struct {
			Action string `json:"action"`
			model.RegisterRequest
		}{Action: "register", RegisterRequest: req},
		fallback: "Ошибка регистрации",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}
