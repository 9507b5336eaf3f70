package handler

import (
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// fakeRemote имитирует удалённые функции платформы.
type fakeRemote struct {
	mu            sync.Mutex
	users         map[string]model.User
	tours         []model.Tour
	messages      []model.ChatMessage
	notifications []model.Notification
	markRead      int
	uploads       int
	lastCity      string
	moderated     []model.ModerationRequest
	created       int
	statusChanges []string
	chatActions   map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		chatActions: make(map[string]int),
		users: map[string]model.User{
			"client@example.com": {ID: 1, Name: "Анна", Email: "client@example.com", Role: model.RoleClient},
			"guide@example.com":  {ID: 2, Name: "Игорь", Email: "guide@example.com", Role: model.RoleGuide},
			"admin@example.com":  {ID: 3, Name: "Админ", Email: "admin@example.com", Role: model.RoleAdmin},
		},
		tours: []model.Tour{
			{ID: 1, Title: "Казанский кремль", City: "Казань", Price: 2000, Duration: 180},
			{ID: 2, Title: "Ночной Петербург", City: "Санкт-Петербург", Price: 3000, Duration: 90, InstantBooking: true},
		},
		notifications: []model.Notification{
			{ID: 10, Type: model.NotificationBooking, Title: "Новое бронирование"},
			{ID: 11, Type: model.NotificationReview, Title: "Новый отзыв", IsRead: true},
		},
	}
}

type remoteStats struct {
	markRead      int
	uploads       int
	lastCity      string
	moderated     []model.ModerationRequest
	created       int
	statusChanges []string
	chatActions   map[string]int
}

func (f *fakeRemote) get() remoteStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return remoteStats{
		markRead:      f.markRead,
		uploads:       f.uploads,
		lastCity:      f.lastCity,
		moderated:     append([]model.ModerationRequest(nil), f.moderated...),
		created:       f.created,
		statusChanges: append([]string(nil), f.statusChanges...),
		chatActions:   maps.Clone(f.chatActions),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeRemote) server() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action   string `json:"action"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Name     string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		u, ok := f.users[body.Email]
		if body.Action == "login" && (!ok || body.Password != "secret") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, model.AuthResponse{Success: true, User: u})
	})

	mux.HandleFunc("/tours", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastCity = r.URL.Query().Get("city")
		writeJSON(w, http.StatusOK, model.ToursResponse{Tours: f.tours, Total: len(f.tours), Cities: []string{"Казань"}, Limit: 50})
	})

	mux.HandleFunc("/moderation", func(w http.ResponseWriter, r *http.Request) {
		var req model.ModerationRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.moderated = append(f.moderated, req)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, model.ModerationResponse{Success: true, TourID: req.TourID, Action: string(req.Action)})
	})

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filename string `json:"filename"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.uploads++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, model.UploadResponse{URL: "https://cdn.example.com/" + body.Filename, Filename: body.Filename})
	})

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.chatActions[r.URL.Query().Get("action")]++
		switch r.URL.Query().Get("action") {
		case "messages":
			writeJSON(w, http.StatusOK, map[string]any{"messages": f.messages})
		case "send_message":
			var body struct {
				BookingID int    `json:"booking_id"`
				SenderID  int    `json:"sender_id"`
				Message   string `json:"message"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.messages = append(f.messages, model.ChatMessage{
				ID: len(f.messages) + 1, BookingID: body.BookingID, SenderID: body.SenderID, Message: body.Message,
			})
			writeJSON(w, http.StatusCreated, map[string]any{"success": true})
		case "notifications":
			writeJSON(w, http.StatusOK, map[string]any{"notifications": f.notifications})
		case "unread_count":
			n := 0
			for _, item := range f.notifications {
				if !item.IsRead {
					n++
				}
			}
			writeJSON(w, http.StatusOK, map[string]int{"unread_count": n})
		case "mark_read":
			var body struct {
				NotificationID int `json:"notification_id"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.markRead++
			for i := range f.notifications {
				if f.notifications[i].ID == body.NotificationID {
					f.notifications[i].IsRead = true
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action"})
		}
	})

	mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			f.created++
			writeJSON(w, http.StatusCreated, model.CreateBookingResponse{ID: 100 + f.created, Status: model.BookingPending})
			return
		case http.MethodPut:
			var body struct {
				BookingID int    `json:"booking_id"`
				Action    string `json:"action"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.statusChanges = append(f.statusChanges, body.Action+":"+strconv.Itoa(body.BookingID))
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
		if r.URL.Query().Get("action") == "tour_dates" {
			writeJSON(w, http.StatusOK, map[string]any{"dates": []model.TourDate{{Date: "2026-11-01", AvailableSlots: 5}}})
			return
		}
		userID, _ := strconv.Atoi(r.Header.Get("X-User-Id"))
		writeJSON(w, http.StatusOK, map[string]any{"bookings": []model.Booking{
			{ID: 1, TourID: 1, Status: model.BookingPending, GuestsCount: userID},
			{ID: 2, TourID: 2, Status: model.BookingCompleted},
		}})
	})

	return httptest.NewServer(mux)
}
