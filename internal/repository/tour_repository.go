package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// TourRepository обеспечивает доступ к каталогу туров удалённого сервиса.
type TourRepository struct {
	remote *remote
}

// NewTourRepository создает новый репозиторий для туров.
func NewTourRepository(c *Client, endpoint string) *TourRepository {
	return &TourRepository{remote: c.remote("tours", endpoint)}
}

// List выполняет поиск туров по фильтрам. Пустые и нулевые фильтры не передаются.
func (r *TourRepository) List(ctx context.Context, f model.TourFilter) (*model.ToursResponse, error) {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var resp model.ToursResponse
	err := r.remote.call(ctx, request{
		method:   http.MethodGet,
		query:    q,
		fallback: "Failed to fetch tours",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create отправляет новый тур на модерацию.
func (r *TourRepository) Create(ctx context.Context, tour model.CreateTourRequest) (*model.CreateTourResponse, error) {
	var resp model.CreateTourResponse
	err := r.remote.call(ctx, request{
		method:   http.MethodPost,
		body:     tour,
		fallback: "Failed to create tour",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
