package model

// Tour представляет экскурсию из каталога. Источником истины служит удалённый сервис туров.
type Tour struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	City             string   `json:"city"`
	Price            float64  `json:"price"`
	Duration         int      `json:"duration"` // длительность в минутах
	ShortDescription string   `json:"short_description"`
	FullDescription  string   `json:"full_description"`
	ImageURL         string   `json:"image_url"`
	Images           []string `json:"images,omitempty"`
	Rating           float64  `json:"rating"`
	ReviewsCount     int      `json:"reviews_count"`
	GuideName        string   `json:"guide_name"`
	GuideAvatar      string   `json:"guide_avatar"`
	InstantBooking   bool     `json:"instant_booking"`
}

// ToursResponse представляет страницу каталога вместе со списком городов для фильтра.
type ToursResponse struct {
	Tours  []Tour   `json:"tours"`
	Total  int      `json:"total"`
	Cities []string `json:"cities"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// TourFilter содержит параметры поиска по каталогу. Нулевые значения не передаются.
type TourFilter struct {
	City     string  `json:"city,omitempty" form:"city"`
	MinPrice float64 `json:"min_price,omitempty" form:"min_price"`
	MaxPrice float64 `json:"max_price,omitempty" form:"max_price"`
	Search   string  `json:"search,omitempty" form:"search"`
	Limit    int     `json:"limit,omitempty" form:"limit"`
	Offset   int     `json:"offset,omitempty" form:"offset"`
}

// CreateTourRequest содержит данные нового тура, отправляемые гидом на модерацию.
type CreateTourRequest struct {
	Title            string   `json:"title"`
	City             string   `json:"city"`
	Price            float64  `json:"price"`
	Duration         int      `json:"duration"`
	ShortDescription string   `json:"short_description"`
	FullDescription  string   `json:"full_description"`
	InstantBooking   bool     `json:"instant_booking"`
	ImageURL         string   `json:"image_url"`
	Images           []string `json:"images,omitempty"`
}

type CreateTourResponse struct {
	Success bool   `json:"success"`
	TourID  int    `json:"tour_id"`
	Message string `json:"message"`
}
