package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/repository"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeTours struct {
	mu      sync.Mutex
	tours   []model.Tour
	filters []model.TourFilter
	created []model.CreateTourRequest
	err     error
	hold    chan struct{}
	waiting int
}

func (f *fakeTours) List(_ context.Context, filter model.TourFilter) (*model.ToursResponse, error) {
	if f.hold != nil {
		f.mu.Lock()
		f.waiting++
		f.mu.Unlock()
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}
	end := filter.Offset + limit
	if end > len(f.tours) {
		end = len(f.tours)
	}
	var page []model.Tour
	if filter.Offset < len(f.tours) {
		page = f.tours[filter.Offset:end]
	}
	return &model.ToursResponse{Tours: page, Total: len(f.tours), Limit: limit, Offset: filter.Offset}, nil
}

func (f *fakeTours) Create(_ context.Context, t model.CreateTourRequest) (*model.CreateTourResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, t)
	return &model.CreateTourResponse{Success: true, TourID: 100 + len(f.created), Message: "Тур отправлен на модерацию"}, nil
}

type fakeBookings struct {
	mu        sync.Mutex
	dates     []model.TourDate
	list      []model.Booking
	created   []model.CreateBookingRequest
	confirmed []int
	cancelled []int
	fetches   int
	release   chan struct{}
	createErr error
}

func (f *fakeBookings) TourDates(context.Context, int) ([]model.TourDate, error) {
	return f.dates, nil
}

func (f *fakeBookings) UserBookings(context.Context, int) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.list, nil
}

func (f *fakeBookings) Create(ctx context.Context, b model.CreateBookingRequest) (*model.CreateBookingResponse, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, b)
	return &model.CreateBookingResponse{ID: len(f.created), Status: model.BookingPending}, nil
}

func (f *fakeBookings) Confirm(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakeBookings) Cancel(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeAvailability struct {
	slots map[string]int
}

func (f *fakeAvailability) Get(_ context.Context, tourID int) (*model.TourAvailability, error) {
	return &model.TourAvailability{TourID: tourID, Availability: f.slots}, nil
}

type fakeMessages struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	fetches  int
	sent     []string
	release  chan struct{}
	sendErr  error
}

func (f *fakeMessages) Messages(context.Context, int, int) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return append([]model.ChatMessage(nil), f.messages...), nil
}

func (f *fakeMessages) Send(ctx context.Context, bookingID, senderID int, text string) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	f.messages = append(f.messages, model.ChatMessage{
		ID: len(f.messages) + 1, BookingID: bookingID, SenderID: senderID, Message: text,
	})
	return nil
}

func (f *fakeMessages) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeNotifications struct {
	mu       sync.Mutex
	list     []model.Notification
	listed   int
	counted  int
	marked   []int
	markAll  int
	countErr error
}

func (f *fakeNotifications) Notifications(context.Context, int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	return append([]model.Notification(nil), f.list...), nil
}

func (f *fakeNotifications) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed
}

func (f *fakeNotifications) UnreadCount(context.Context, int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counted++
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, item := range f.list {
		if !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAllRead(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAll++
	for i := range f.list {
		f.list[i].IsRead = true
	}
	return nil
}

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]model.User
	profiles map[int]*model.UserProfile
	updates  []model.UpdateProfileRequest
	loginErr error
}

func (f *fakeUsers) Login(_ context.Context, req model.LoginRequest) (*model.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u, ok := f.users[req.Email]
	if !ok {
		return nil, &repository.APIError{StatusCode: 401, Message: "Invalid credentials"}
	}
	return &u, nil
}

func (f *fakeUsers) Register(_ context.Context, req model.RegisterRequest) (*model.User, error) {
	if _, ok := f.users[req.Email]; ok {
		return nil, &repository.APIError{StatusCode: 409, Message: "User already exists"}
	}
	u := model.User{ID: len(f.users) + 1, Name: req.Name, Email: req.Email, Role: req.Role}
	f.users[req.Email] = u
	return &u, nil
}

func (f *fakeUsers) GetProfile(_ context.Context, userID int) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, &repository.APIError{StatusCode: 404, Message: "User not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, req model.UpdateProfileRequest) (*model.UpdateProfileResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	p, ok := f.profiles[req.UserID]
	if !ok {
		return nil, errors.New("no profile")
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.TelegramNotifications != nil {
		p.TelegramNotifications = req.TelegramNotifications
	}
	return &model.UpdateProfileResponse{Success: true}, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   []string
	active  int
	overlap bool
	fail    map[string]bool
}

func (f *fakeUploader) UploadImage(_ context.Context, filename, _ string, data []byte) (*model.UploadResponse, error) {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.calls = append(f.calls, filename)
	fail := f.fail[filename]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()
	if fail {
		return nil, &repository.APIError{StatusCode: 500, Message: "upload failed"}
	}
	return &model.UploadResponse{URL: "https://cdn.example.com/" + filename, Filename: filename, Size: int64(len(data))}, nil
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTours) listWaiting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting > 0
}
