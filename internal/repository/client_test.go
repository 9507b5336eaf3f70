package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

func newTestClient() *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(nil, logger, metrics.Nop())
}

func TestTourRepository_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("city") != "Прага" || q.Get("min_price") != "1000" || q.Get("search") != "замок" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("max_price") || q.Has("offset") {
			t.Errorf("zero filters must be omitted: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(model.ToursResponse{
			Tours:  []model.Tour{{ID: 1, Title: "Пражский Град", City: "Прага", Price: 4200}},
			Total:  1,
			Cities: []string{"Прага"},
			Limit:  50,
		})
	}))
	defer server.Close()

	repo := NewTourRepository(newTestClient(), server.URL)
	resp, err := repo.List(context.Background(), model.TourFilter{City: "Прага", MinPrice: 1000, Search: "замок"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(resp.Tours) != 1 || resp.Tours[0].Title != "Пражский Град" {
		t.Errorf("unexpected tours %+v", resp.Tours)
	}
}

func TestRemoteErrorSurfacesErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Tour not found"}`))
	}))
	defer server.Close()

	repo := NewBookingRepository(newTestClient(), server.URL)
	_, err := repo.Create(context.Background(), model.CreateBookingRequest{TourID: 7})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Tour not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestRemoteErrorFallsBackWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	repo := NewBookingRepository(newTestClient(), server.URL)
	err := repo.Cancel(context.Background(), 3)
	if err == nil || err.Error() != "Failed to cancel booking" {
		t.Errorf("expected fallback message, got %v", err)
	}
	if StatusCode(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", StatusCode(err))
	}
}

func TestBookingRepository_UserBookingsSendsUserHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "user_bookings" {
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
		if r.Header.Get(UserIDHeader) != "42" {
			t.Errorf("expected X-User-Id 42, got %q", r.Header.Get(UserIDHeader))
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	repo := NewBookingRepository(newTestClient(), server.URL)
	bookings, err := repo.UserBookings(context.Background(), 42)
	if err != nil {
		t.Fatalf("UserBookings failed: %v", err)
	}
	if bookings == nil || len(bookings) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", bookings)
	}
}

func TestBookingRepository_ConfirmBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["action"] != "confirm" || body["booking_id"] != float64(9) {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	if err := NewBookingRepository(newTestClient(), server.URL).Confirm(context.Background(), 9); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
}

func TestChatRepository(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "messages":
			w.Write([]byte(`{"messages": [{"id": 2, "message": "b"}, {"id": 1, "message": "a"}]}`))
		case "unread_count":
			w.Write([]byte(`{"unread_count": 12}`))
		case "mark_read":
			var body map[string]int
			json.NewDecoder(r.Body).Decode(&body)
			if body["notification_id"] != 5 {
				t.Errorf("unexpected mark_read body %v", body)
			}
			w.Write([]byte(`{"success": true}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	repo := NewChatRepository(newTestClient(), server.URL)
	ctx := context.Background()

	t.Run("MessagesKeepServerOrder", func(t *testing.T) {
		msgs, err := repo.Messages(ctx, 1, 2)
		if err != nil {
			t.Fatalf("Messages failed: %v", err)
		}
		if len(msgs) != 2 || msgs[0].ID != 2 || msgs[1].ID != 1 {
			t.Errorf("order changed: %+v", msgs)
		}
	})

	t.Run("UnreadCount", func(t *testing.T) {
		n, err := repo.UnreadCount(ctx, 2)
		if err != nil || n != 12 {
			t.Errorf("got %d, %v", n, err)
		}
	})

	t.Run("MarkRead", func(t *testing.T) {
		if err := repo.MarkRead(ctx, 5); err != nil {
			t.Errorf("MarkRead failed: %v", err)
		}
	})
}

func TestUploadRepositorySendsDataURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if !strings.HasPrefix(body["image"], "data:image/png;base64,") || body["filename"] != "a.png" {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"url": "https://cdn.example/a.png", "filename": "a.png", "size": 3}`))
	}))
	defer server.Close()

	resp, err := NewUploadRepository(newTestClient(), server.URL).UploadImage(context.Background(), "a.png", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if resp.URL != "https://cdn.example/a.png" {
		t.Errorf("unexpected url %q", resp.URL)
	}
}

func TestUserRepository_RegisterSendsAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["action"] != "register" || body["role"] != "guide" || body["email"] != "anna@example.com" {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"success": true, "user": {"id": 3, "name": "Анна", "email": "anna@example.com", "role": "guide"}}`))
	}))
	defer server.Close()

	user, err := NewUserRepository(newTestClient(), server.URL).Register(context.Background(), model.RegisterRequest{
		Name: "Анна", Email: "anna@example.com", Password: "secret", Role: model.RoleGuide,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID != 3 || user.Role != model.RoleGuide {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := NewAvailabilityRepository(newTestClient(), server.URL)
	for i := 0; i < 3; i++ {
		if _, err := repo.Get(context.Background(), 1); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := repo.Get(context.Background(), 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 upstream calls, got %d", calls)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	repo := NewAvailabilityRepository(newTestClient(), server.URL)
	for i := 0; i < 5; i++ {
		repo.Get(context.Background(), 1)
	}
	if calls != 5 {
		t.Errorf("4xx must not open the breaker, got %d calls", calls)
	}
}
