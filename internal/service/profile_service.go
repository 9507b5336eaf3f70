package service

import (
	"context"
	"net/url"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
)

// TelegramLinkInfo содержит ссылку для привязки Telegram к аккаунту.
type TelegramLinkInfo struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// ProfileService отвечает за страницу профиля.
type ProfileService struct {
	users       UserStore
	sessions    *session.Manager
	botUsername string
}

// NewProfileService создает новый сервис профиля.
func NewProfileService(users UserStore, sessions *session.Manager, botUsername string) *ProfileService {
	return &ProfileService{users: users, sessions: sessions, botUsername: botUsername}
}

// Get возвращает профиль пользователя.
func (s *ProfileService) Get(ctx context.Context, userID int) (*model.UserProfile, error) {
	return s.users.GetProfile(ctx, userID)
}

// Update сохраняет изменённые поля и возвращает профиль, заново загруженный с сервера.
func (s *ProfileService) Update(ctx context.Context, userID int, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	req.UserID = userID
	if _, err := s.users.UpdateProfile(ctx, req); err != nil {
		return nil, err
	}
	return s.users.GetProfile(ctx, userID)
}

// TelegramLink выдаёт одноразовую ссылку на бота для привязки чата.
func (s *ProfileService) TelegramLink(ctx context.Context, userID int) (*TelegramLinkInfo, error) {
	code, err := s.sessions.IssueLinkCode(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := url.URL{Scheme: "https", Host: "t.me", Path: "/" + s.botUsername, RawQuery: "start=" + code}
	return &TelegramLinkInfo{Code: code, URL: u.String()}, nil
}
