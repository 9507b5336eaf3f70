package model

// BookingStatus представляет статус бронирования. Переходы выполняет удалённый сервис.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking представляет бронирование тура клиентом на конкретную дату.
type Booking struct {
	ID          int           `json:"id"`
	TourID      int           `json:"tour_id"`
	TourTitle   string        `json:"tour_title"`
	City        string        `json:"city"`
	ImageURL    string        `json:"image_url"`
	GuideName   string        `json:"guide_name"`
	GuideAvatar string        `json:"guide_avatar"`
	BookingDate string        `json:"booking_date"`
	GuestsCount int           `json:"guests_count"`
	TotalPrice  float64       `json:"total_price"`
	Status      BookingStatus `json:"status"`
	CreatedAt   string        `json:"created_at"`
}

// TourDate представляет дату проведения тура со свободными местами.
type TourDate struct {
	Date           string `json:"date"`
	AvailableSlots int    `json:"available_slots"`
}

type CreateBookingRequest struct {
	TourID         int    `json:"tour_id"`
	ClientID       int    `json:"client_id"`
	BookingDate    string `json:"booking_date"`
	GuestsCount    int    `json:"guests_count"`
	ClientName     string `json:"client_name"`
	ClientTelegram string `json:"client_telegram,omitempty"`
}

type CreateBookingResponse struct {
	ID         int           `json:"id"`
	Status     BookingStatus `json:"status"`
	TotalPrice float64       `json:"total_price"`
	CreatedAt  string        `json:"created_at"`
}

// TourAvailability представляет число свободных мест по датам (дата -> места).
type TourAvailability struct {
	TourID       int            `json:"tour_id"`
	MaxGuests    int            `json:"max_guests"`
	Availability map[string]int `json:"availability"`
}
