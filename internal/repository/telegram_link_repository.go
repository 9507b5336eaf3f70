package repository

import (
	"context"
	"fmt"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"

	"github.com/jmoiron/sqlx"
)

// TelegramLinkRepository хранит привязки пользователей к чатам Telegram.
type TelegramLinkRepository struct {
	db *sqlx.DB
}

// NewTelegramLinkRepository создает новый репозиторий привязок.
func NewTelegramLinkRepository(db *sqlx.DB) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// Link привязывает чат к пользователю. Повторная привязка заменяет чат.
func (r *TelegramLinkRepository) Link(ctx context.Context, userID int, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO telegram_links (user_id, chat_id, last_notification_id) VALUES ($1, $2, 0)
		 ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id`,
		userID, chatID)
	if err != nil {
		return fmt.Errorf("не удалось привязать Telegram: %w", err)
	}
	return nil
}

// UnlinkChat удаляет привязку по чату. Возвращает false, если чат не был привязан.
func (r *TelegramLinkRepository) UnlinkChat(ctx context.Context, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM telegram_links WHERE chat_id=$1", chatID)
	if err != nil {
		return false, fmt.Errorf("не удалось отвязать Telegram: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List возвращает все привязки.
func (r *TelegramLinkRepository) List(ctx context.Context) ([]model.TelegramLink, error) {
	links := []model.TelegramLink{}
	err := r.db.SelectContext(ctx, &links, "SELECT user_id, chat_id, last_notification_id FROM telegram_links ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении привязок Telegram: %w", err)
	}
	return links, nil
}

// MarkDelivered запоминает ID последнего отправленного уведомления.
func (r *TelegramLinkRepository) MarkDelivered(ctx context.Context, userID, notificationID int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE telegram_links SET last_notification_id=$1 WHERE user_id=$2 AND last_notification_id < $1",
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("не удалось обновить последнее уведомление: %w", err)
	}
	return nil
}
