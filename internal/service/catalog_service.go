package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// Границы ползунка цены в каталоге. Значения на границах не передаются в фильтр.
const (
	PriceFloor   = 0
	PriceCeiling = 50000
	catalogPage  = 50
)

// CatalogQuery хранит состояние фильтров на главной странице.
type CatalogQuery struct {
	City     string  `form:"city"`
	MinPrice float64 `form:"min_price"`
	MaxPrice float64 `form:"max_price"`
	Search   string  `form:"search"`
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
}

// Filter переводит состояние формы в фильтр удалённого каталога.
func (q CatalogQuery) Filter() model.TourFilter {
	f := model.TourFilter{Limit: q.Limit, Offset: q.Offset}
	if q.City != "" && q.City != "all" {
		f.City = q.City
	}
	if q.MinPrice > PriceFloor {
		f.MinPrice = q.MinPrice
	}
	if q.MaxPrice > 0 && q.MaxPrice < PriceCeiling {
		f.MaxPrice = q.MaxPrice
	}
	f.Search = strings.TrimSpace(q.Search)
	return f
}

// TourCard представляет карточку тура в каталоге.
type TourCard struct {
	model.Tour
	DurationLabel string `json:"duration_label"`
}

// CatalogPage представляет ответ главной страницы.
type CatalogPage struct {
	Tours  []TourCard `json:"tours"`
	Total  int        `json:"total"`
	Cities []string   `json:"cities"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// CatalogService содержит логику каталога туров.
type CatalogService struct {
	tours TourStore
}

// NewCatalogService создает новый сервис каталога.
func NewCatalogService(tours TourStore) *CatalogService {
	return &CatalogService{tours: tours}
}

// Search выполняет поиск туров по фильтрам каталога.
func (s *CatalogService) Search(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	resp, err := s.tours.List(ctx, q.Filter())
	if err != nil {
		return nil, err
	}
	page := &CatalogPage{
		Tours:  make([]TourCard, 0, len(resp.Tours)),
		Total:  resp.Total,
		Cities: resp.Cities,
		Limit:  resp.Limit,
		Offset: resp.Offset,
	}
	for _, t := range resp.Tours {
		page.Tours = append(page.Tours, TourCard{Tour: t, DurationLabel: FormatDuration(t.Duration)})
	}
	return page, nil
}

// Tour находит тур по ID. Удалённый каталог не умеет искать по ID, поэтому перебираем страницы.
func (s *CatalogService) Tour(ctx context.Context, id int) (*model.Tour, error) {
	offset := 0
	for {
		resp, err := s.tours.List(ctx, model.TourFilter{Limit: catalogPage, Offset: offset})
		if err != nil {
			return nil, err
		}
		for i := range resp.Tours {
			if resp.Tours[i].ID == id {
				return &resp.Tours[i], nil
			}
		}
		offset += len(resp.Tours)
		if len(resp.Tours) == 0 || offset >= resp.Total {
			return nil, ErrTourNotFound
		}
	}
}

// All загружает весь каталог постранично.
func (s *CatalogService) All(ctx context.Context) ([]model.Tour, error) {
	var tours []model.Tour
	offset := 0
	for {
		resp, err := s.tours.List(ctx, model.TourFilter{Limit: catalogPage, Offset: offset})
		if err != nil {
			return nil, err
		}
		tours = append(tours, resp.Tours...)
		offset += len(resp.Tours)
		if len(resp.Tours) == 0 || offset >= resp.Total {
			return tours, nil
		}
	}
}

// FormatDuration форматирует длительность в минутах: "45 минут", "2 часа", "1ч 30м".
func FormatDuration(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60

	if hours == 0 {
		return fmt.Sprintf("%d минут", mins)
	}
	if mins == 0 {
		word := "часов"
		switch {
		case hours == 1:
			word = "час"
		case hours < 5:
			word = "часа"
		}
		return fmt.Sprintf("%d %s", hours, word)
	}
	return fmt.Sprintf("%dч %dм", hours, mins)
}
