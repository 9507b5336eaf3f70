package service

import (
	"errors"
	"strings"
)

// Notice представляет сообщение пользователю по итогам действия (тост или блокирующее уведомление).
type Notice struct {
	Variant     string `json:"variant"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

func info(title, description string) Notice {
	return Notice{Variant: VariantDefault, Title: title, Description: description}
}

func failure(description string) Notice {
	return Notice{Variant: VariantDestructive, Title: "Ошибка", Description: description}
}

// ValidationError представляет ошибку заполнения формы, обнаруженная до обращения к сервису.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "не заполнены обязательные поля: " + strings.Join(e.Fields, ", ")
}

// IsValidation сообщает, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRegistrationFailed   = errors.New("registration failed")
	ErrEmptyMessage         = errors.New("сообщение не может быть пустым")
	ErrReasonRequired       = errors.New("укажите причину отклонения")
	ErrTourNotFound         = errors.New("тур не найден")
	ErrBookingNotFound      = errors.New("бронирование не найдено")
	ErrDraftNotFound        = errors.New("черновик тура не найден")
	ErrNotificationNotFound = errors.New("уведомление не найдено")
)

// Тексты уведомлений, которые видит пользователь.
const (
	MsgInvalidCredentials = "Неверный email или пароль"
	MsgRegistrationFailed = "Не удалось зарегистрироваться. Попробуйте снова."
)
