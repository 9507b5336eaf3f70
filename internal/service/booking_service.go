package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/sirupsen/logrus"
)

// BookingForm содержит данные диалога бронирования.
type BookingForm struct {
	Date           string `json:"date"`
	Guests         int    `json:"guests"`
	ClientName     string `json:"client_name"`
	ClientTelegram string `json:"client_telegram,omitempty"`
}

// Quote представляет расчёт стоимости в диалоге бронирования.
type Quote struct {
	Guests     int     `json:"guests"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// BookingResult представляет итог отправки формы бронирования.
type BookingResult struct {
	Booking *model.CreateBookingResponse `json:"booking,omitempty"`
	Notice  Notice                       `json:"notice"`
}

// ClientBookings содержит бронирования клиента, разложенные по вкладкам кабинета.
type ClientBookings struct {
	Upcoming  []model.Booking `json:"upcoming"`
	Completed []model.Booking `json:"completed"`
	Cancelled []model.Booking `json:"cancelled"`
}

// BookingService отвечает за диалог бронирования и кабинет клиента.
type BookingService struct {
	bookings     BookingStore
	availability AvailabilitySource
	catalog      *CatalogService
	inflight     *action.Registry
	logger       *logrus.Logger
}

// NewBookingService создает новый сервис бронирований.
func NewBookingService(bookings BookingStore, availability AvailabilitySource, catalog *CatalogService, logger *logrus.Logger) *BookingService {
	return &BookingService{
		bookings:     bookings,
		availability: availability,
		catalog:      catalog,
		inflight:     action.NewRegistry(),
		logger:       logger,
	}
}

// ClampGuests не даёт выбрать меньше одного гостя.
func ClampGuests(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// QuoteFor считает итоговую цену: цена за человека × число гостей.
func QuoteFor(unitPrice float64, guests int) Quote {
	guests = ClampGuests(guests)
	return Quote{Guests: guests, UnitPrice: unitPrice, TotalPrice: unitPrice * float64(guests)}
}

// Quote считает стоимость для тура из каталога.
func (s *BookingService) Quote(ctx context.Context, tourID, guests int) (Quote, error) {
	tour, err := s.catalog.Tour(ctx, tourID)
	if err != nil {
		return Quote{}, err
	}
	return QuoteFor(tour.Price, guests), nil
}

// AvailableDates возвращает даты, на которые можно забронировать тур.
func (s *BookingService) AvailableDates(ctx context.Context, tourID int) ([]model.TourDate, error) {
	return s.bookings.TourDates(ctx, tourID)
}

// Availability возвращает свободные места по датам.
func (s *BookingService) Availability(ctx context.Context, tourID int) (*model.TourAvailability, error) {
	return s.availability.Get(ctx, tourID)
}

func (s *BookingService) key(clientID, tourID int) string {
	return fmt.Sprintf("%d:%d", clientID, tourID)
}

// Pending сообщает, отправляется ли сейчас бронирование клиента на этот тур.
func (s *BookingService) Pending(clientID, tourID int) bool {
	return s.inflight.Get(s.key(clientID, tourID)).State() == action.Pending
}

// Book отправляет бронирование. Повторная отправка, пока первая не завершилась, отклоняется.
func (s *BookingService) Book(ctx context.Context, clientID, tourID int, form BookingForm) (*BookingResult, error) {
	name := strings.TrimSpace(form.ClientName)
	var missing []string
	if name == "" {
		missing = append(missing, "client_name")
	}
	if form.Date == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}
	guests := ClampGuests(form.Guests)

	key := s.key(clientID, tourID)
	act := s.inflight.Get(key)
	if !act.Start() {
		return nil, action.ErrInFlight
	}
	defer s.inflight.Forget(key)

	resp, err := s.book(ctx, clientID, tourID, name, guests, form)
	act.Finish(err)
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return &BookingResult{Notice: failure(err.Error())}, err
	}
	return &BookingResult{
		Booking: resp,
		Notice:  info("Бронирование создано!", "Гид свяжется с вами для подтверждения"),
	}, nil
}

func (s *BookingService) book(ctx context.Context, clientID, tourID int, name string, guests int, form BookingForm) (*model.CreateBookingResponse, error) {
	dates, err := s.bookings.TourDates(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if !hasDate(dates, form.Date) {
		return nil, &ValidationError{Fields: []string{"date"}, Message: "дата недоступна для бронирования"}
	}

	avail, err := s.availability.Get(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if free, ok := avail.Availability[form.Date]; ok && guests > free {
		return nil, &ValidationError{
			Fields:  []string{"guests"},
			Message: fmt.Sprintf("на эту дату осталось мест: %d", free),
		}
	}

	return s.bookings.Create(ctx, model.CreateBookingRequest{
		TourID:         tourID,
		ClientID:       clientID,
		BookingDate:    form.Date,
		GuestsCount:    guests,
		ClientName:     name,
		ClientTelegram: strings.TrimSpace(form.ClientTelegram),
	})
}

func hasDate(dates []model.TourDate, date string) bool {
	for _, d := range dates {
		if d.Date == date {
			return true
		}
	}
	return false
}

// ClientBookings загружает бронирования пользователя и раскладывает их по статусам.
func (s *BookingService) ClientBookings(ctx context.Context, userID int) (*ClientBookings, error) {
	list, err := s.bookings.UserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return GroupBookings(list), nil
}

// GroupBookings раскладывает бронирования: предстоящие (pending, confirmed), завершённые, отменённые.
func GroupBookings(list []model.Booking) *ClientBookings {
	out := &ClientBookings{
		Upcoming:  []model.Booking{},
		Completed: []model.Booking{},
		Cancelled: []model.Booking{},
	}
	for _, b := range list {
		switch b.Status {
		case model.BookingPending, model.BookingConfirmed:
			out.Upcoming = append(out.Upcoming, b)
		case model.BookingCompleted:
			out.Completed = append(out.Completed, b)
		case model.BookingCancelled:
			out.Cancelled = append(out.Cancelled, b)
		}
	}
	return out
}

// Confirm подтверждает бронирование от имени гида. Уведомление клиенту создаёт удалённый сервис.
func (s *BookingService) Confirm(ctx context.Context, bookingID int) (Notice, error) {
	if err := s.bookings.Confirm(ctx, bookingID); err != nil {
		return failure(err.Error()), err
	}
	return info("Бронирование подтверждено", "Клиент получит уведомление"), nil
}

// Cancel отменяет бронирование клиента и возвращает обновлённый список.
// Чужое бронирование не найдётся в списке клиента и не будет отменено.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID int) (*ClientBookings, error) {
	list, err := s.bookings.UserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ownsBooking(list, bookingID) {
		return nil, ErrBookingNotFound
	}
	if err := s.bookings.Cancel(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.ClientBookings(ctx, userID)
}

func ownsBooking(list []model.Booking, bookingID int) bool {
	for _, b := range list {
		if b.ID == bookingID {
			return true
		}
	}
	return false
}

// AllowedActions возвращает кнопки, которые клиент видит для статуса. Подтверждение доступно только гиду.
func AllowedActions(status model.BookingStatus) []string {
	switch status {
	case model.BookingPending, model.BookingConfirmed:
		return []string{"cancel"}
	}
	return nil
}
