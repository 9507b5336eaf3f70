package repository

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// AvailabilityRepository возвращает число свободных мест тура по датам.
type AvailabilityRepository struct {
	remote *remote
}

func NewAvailabilityRepository(c *Client, endpoint string) *AvailabilityRepository {
	return &AvailabilityRepository{remote: c.remote("availability", endpoint)}
}

func (r *AvailabilityRepository) Get(ctx context.Context, tourID int) (*model.TourAvailability, error) {
	var resp model.TourAvailability
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    query("action", "availability", "tour_id", strconv.Itoa(tourID)),
		fallback: "Failed to fetch availability",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Availability == nil {
		resp.Availability = map[string]int{}
	}
	return &resp, nil
}
