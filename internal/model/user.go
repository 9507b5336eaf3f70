package model

type Role string

const (
	RoleClient Role = "client"
	RoleGuide  Role = "guide"
	RoleAdmin  Role = "admin"
)

// User представляет снимок авторизованного пользователя, который хранится в сессии.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserProfile представляет полный профиль пользователя из сервиса авторизации.
type UserProfile struct {
	ID                    int    `json:"id"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Role                  Role   `json:"role"`
	AvatarURL             string `json:"avatar_url,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Telegram              string `json:"telegram,omitempty"`
	City                  string `json:"city,omitempty"`
	Bio                   string `json:"bio,omitempty"`
	Languages             string `json:"languages,omitempty"`
	ExperienceYears       *int   `json:"experience_years,omitempty"`
	Specialization        string `json:"specialization,omitempty"`
	Interests             string `json:"interests,omitempty"`
	EmailNotifications    *bool  `json:"email_notifications,omitempty"`
	TelegramNotifications *bool  `json:"telegram_notifications,omitempty"`
	CreatedAt             string `json:"created_at,omitempty"`
}

// UpdateProfileRequest передаёт только изменённые поля; UserID берётся из сессии.
type UpdateProfileRequest struct {
	UserID                int     `json:"user_id"`
	Name                  *string `json:"name,omitempty"`
	Email                 *string `json:"email,omitempty" binding:"omitempty,email"`
	AvatarURL             *string `json:"avatar_url,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	Telegram              *string `json:"telegram,omitempty"`
	City                  *string `json:"city,omitempty"`
	Bio                   *string `json:"bio,omitempty"`
	Languages             *string `json:"languages,omitempty"`
	ExperienceYears       *int    `json:"experience_years,omitempty"`
	Specialization        *string `json:"specialization,omitempty"`
	Interests             *string `json:"interests,omitempty"`
	EmailNotifications    *bool   `json:"email_notifications,omitempty"`
	TelegramNotifications *bool   `json:"telegram_notifications,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Role      Role   `json:"role" binding:"omitempty,oneof=client guide"`
	Phone     string `json:"phone,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Languages string `json:"languages,omitempty"`
}

// AuthResponse представляет ответ сервиса авторизации на вход и регистрацию.
type AuthResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type UpdateProfileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TelegramLink связывает пользователя платформы с чатом Telegram для уведомлений.
type TelegramLink struct {
	UserID             int   `db:"user_id"`
	ChatID             int64 `db:"chat_id"`
	LastNotificationID int   `db:"last_notification_id"`
}
