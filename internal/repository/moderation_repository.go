package repository

import (
	"context"
	"net/http"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

type ModerationRepository struct {
	remote *remote
}

func NewModerationRepository(c *Client, endpoint string) *ModerationRepository {
	return &ModerationRepository{remote: c.remote("moderation", endpoint)}
}

// Moderate передаёт решение модератора по туру.
func (r *ModerationRepository) Moderate(ctx context.Context, req model.ModerationRequest) (*model.ModerationResponse, error) {
	var resp model.ModerationResponse
	err := r.remote.call(ctx, request{
		method:   http.MethodPost,
		query:    query("action", "moderate"),
		body:     req,
		fallback: "Failed to moderate tour",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ModerationRepository) Approve(ctx context.Context, tourID int) (*model.ModerationResponse, error) {
	return r.Moderate(ctx, model.ModerationRequest{TourID: tourID, Action: model.ModerationApprove})
}

func (r *ModerationRepository) Reject(ctx context.Context, tourID int, reason string) (*model.ModerationResponse, error) {
	return r.Moderate(ctx, model.ModerationRequest{TourID: tourID, Action: model.ModerationReject, Reason: reason})
}
