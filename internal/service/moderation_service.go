package service

import (
	"context"
	"strings"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// ModerationQueue содержит туры в панели администратора.
// Статуса модерации в каталоге нет, поэтому "на модерации" считаются туры без
// мгновенного бронирования, а "активными" с ним.
type ModerationQueue struct {
	Pending []model.Tour `json:"pending"`
	Active  []model.Tour `json:"active"`
}

// ModerationResult представляет итог решения администратора.
type ModerationResult struct {
	Response *model.ModerationResponse `json:"response"`
	Notice   Notice                    `json:"notice"`
	Queue    *ModerationQueue          `json:"queue"`
}

// ModerationService отвечает за панель администратора.
type ModerationService struct {
	catalog    *CatalogService
	moderator  Moderator
	processing action.Action
}

// NewModerationService создает новый сервис модерации.
func NewModerationService(catalog *CatalogService, moderator Moderator) *ModerationService {
	return &ModerationService{catalog: catalog, moderator: moderator}
}

// Partition раскладывает туры по признаку instant_booking.
func Partition(tours []model.Tour) *ModerationQueue {
	q := &ModerationQueue{Pending: []model.Tour{}, Active: []model.Tour{}}
	for _, t := range tours {
		if t.InstantBooking {
			q.Active = append(q.Active, t)
		} else {
			q.Pending = append(q.Pending, t)
		}
	}
	return q
}

// Queue загружает каталог и раскладывает его.
func (s *ModerationService) Queue(ctx context.Context) (*ModerationQueue, error) {
	tours, err := s.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	return Partition(tours), nil
}

// Processing сообщает, выполняется ли сейчас решение по туру.
func (s *ModerationService) Processing() action.Snapshot {
	return s.processing.Snapshot()
}

// Approve одобряет тур.
func (s *ModerationService) Approve(ctx context.Context, tourID int) (*ModerationResult, error) {
	return s.decide(ctx, "Тур одобрен!", "Ошибка при одобрении тура", func(ctx context.Context) (*model.ModerationResponse, error) {
		return s.moderator.Approve(ctx, tourID)
	})
}

// Reject отклоняет тур. Причина обязательна.
func (s *ModerationService) Reject(ctx context.Context, tourID int, reason string) (*ModerationResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Fields: []string{"reason"}, Message: ErrReasonRequired.Error()}
	}
	return s.decide(ctx, "Тур отклонен!", "Ошибка при отклонении тура", func(ctx context.Context) (*model.ModerationResponse, error) {
		return s.moderator.Reject(ctx, tourID, reason)
	})
}

// decide держит processing до конца перезагрузки очереди. Если очередь не загрузилась,
// решение всё равно считается принятым и Queue остаётся пустым.
func (s *ModerationService) decide(ctx context.Context, title, failTitle string, call func(context.Context) (*model.ModerationResponse, error)) (*ModerationResult, error) {
	if !s.processing.Start() {
		return nil, action.ErrInFlight
	}
	resp, err := call(ctx)
	if err != nil {
		s.processing.Finish(err)
		return &ModerationResult{Notice: failure(failTitle)}, err
	}

	res := &ModerationResult{Response: resp, Notice: info(title, "")}
	if queue, err := s.Queue(ctx); err == nil {
		res.Queue = queue
	}
	s.processing.Finish(nil)
	return res, nil
}
