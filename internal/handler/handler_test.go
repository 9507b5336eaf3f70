package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/repository"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type testApp struct {
	remote *fakeRemote
	server *httptest.Server
	forms  *service.TourFormService
}

func newTestApp(t *testing.T, loginBurst int) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	remote := newFakeRemote()
	remoteSrv := remote.server()
	t.Cleanup(remoteSrv.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := repository.NewClient(nil, logger, m)
	tours := repository.NewTourRepository(client, remoteSrv.URL+"/tours")
	bookings := repository.NewBookingRepository(client, remoteSrv.URL+"/bookings")
	chat := repository.NewChatRepository(client, remoteSrv.URL+"/chat")
	users := repository.NewUserRepository(client, remoteSrv.URL+"/auth")

	sessions := session.NewManager(session.NewMemoryStore(), "handler-test", time.Hour)
	catalog := service.NewCatalogService(tours)
	forms := service.NewTourFormService(tours, repository.NewUploadRepository(client, remoteSrv.URL+"/upload"), 15, 5<<20, m, logger)

	h := NewHandler(Services{
		Catalog: catalog,
		Bookings: service.NewBookingService(bookings,
			repository.NewAvailabilityRepository(client, remoteSrv.URL+"/tours"), catalog, logger),
		Chat:          service.NewChatService(chat, 50*time.Millisecond, m, logger),
		Notifications: service.NewNotificationService(chat, 50*time.Millisecond, m, logger),
		TourForm:      forms,
		Moderation:    service.NewModerationService(catalog, repository.NewModerationRepository(client, remoteSrv.URL+"/moderation")),
		Auth:          service.NewAuthService(users, sessions, logger),
		Profile:       service.NewProfileService(users, sessions, "turgid_bot"),
	}, sessions, CookieConfig{Name: "authToken", MaxAge: 3600}, 5<<20, logger)

	enforcer, err := casbin.NewEnforcerSafe("../../configs/rbac_model.conf", "../../configs/policy.csv")
	if err != nil {
		t.Fatalf("casbin: %v", err)
	}
	router := NewRouter(h, RouterConfig{
		LoginRate:  1,
		LoginBurst: loginBurst,
		Enforcer:   enforcer,
		Gatherer:   reg,
		Logger:     logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testApp{remote: remote, server: srv, forms: forms}
}

// client возвращает HTTP-клиент с cookie-хранилищем.
func (a *testApp) client(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (a *testApp) login(t *testing.T, email string) *http.Client {
	t.Helper()
	c := a.client(t)
	resp := doJSON(t, c, http.MethodPost, a.server.URL+"/api/auth/login", map[string]string{"email": email, "password": "secret"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	resp.Body.Close()
	return c
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, 100)
	resp := doJSON(t, app.client(t), http.MethodGet, app.server.URL+"/health", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestLoginFailureShowsNoticeAndSetsNoCookie(t *testing.T) {
	app := newTestApp(t, 100)
	resp := doJSON(t, app.client(t), http.MethodPost, app.server.URL+"/api/auth/login",
		map[string]string{"email": "client@example.com", "password": "wrong"})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "authToken" && c.Value != "" {
			t.Error("failed login set a session cookie")
		}
	}
	var body struct {
		Notice   service.Notice `json:"notice"`
		Redirect string         `json:"redirect"`
	}
	decode(t, resp, &body)
	if body.Notice.Variant != service.VariantDestructive || body.Notice.Description != "Неверный email или пароль" {
		t.Errorf("unexpected notice %+v", body.Notice)
	}
	if body.Redirect != "" {
		t.Errorf("unexpected redirect %q", body.Redirect)
	}
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "guide@example.com")

	var sess struct {
		User *struct {
			ID   int    `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, doJSON(t, c, http.MethodGet, app.server.URL+"/api/session", nil), &sess)
	if sess.User == nil || sess.User.ID != 2 || sess.User.Role != "guide" {
		t.Fatalf("unexpected session %+v", sess.User)
	}

	resp := doJSON(t, c, http.MethodPost, app.server.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d", resp.StatusCode)
	}

	sess.User = nil
	decode(t, doJSON(t, c, http.MethodGet, app.server.URL+"/api/session", nil), &sess)
	if sess.User != nil {
		t.Errorf("session survived logout: %+v", sess.User)
	}
}

func TestAccessControl(t *testing.T) {
	app := newTestApp(t, 100)

	tests := []struct {
		name   string
		client *http.Client
		path   string
		want   int
	}{
		{"anonymous catalog", app.client(t), "/api/tours", http.StatusOK},
		{"anonymous bookings", app.client(t), "/api/bookings", http.StatusUnauthorized},
		{"client bookings", app.login(t, "client@example.com"), "/api/bookings", http.StatusOK},
		{"client admin", app.login(t, "client@example.com"), "/api/admin/tours", http.StatusForbidden},
		{"guide draft", app.login(t, "guide@example.com"), "/api/guide/draft", http.StatusOK},
		{"admin queue", app.login(t, "admin@example.com"), "/api/admin/tours", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.client, http.MethodGet, app.server.URL+tt.path, nil)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, 2)
	c := app.client(t)
	var last int
	for i := 0; i < 3; i++ {
		resp := doJSON(t, c, http.MethodPost, app.server.URL+"/api/auth/login",
			map[string]string{"email": "client@example.com", "password": "wrong"})
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}

func TestListToursOmitsAllCity(t *testing.T) {
	app := newTestApp(t, 100)
	var page service.CatalogPage
	decode(t, doJSON(t, app.client(t), http.MethodGet, app.server.URL+"/api/tours?"+url.Values{"city": {"all"}, "search": {" кремль "}}.Encode(), nil), &page)
	if len(page.Tours) != 2 || page.Tours[0].DurationLabel != "3 часа" {
		t.Errorf("unexpected page %+v", page)
	}
	if app.remote.get().lastCity != "" {
		t.Errorf("city sent to remote: %q", app.remote.get().lastCity)
	}
}

func TestClientBookingsGrouped(t *testing.T) {
	app := newTestApp(t, 100)
	var view struct {
		Upcoming []struct {
			ID      int      `json:"id"`
			Actions []string `json:"actions"`
		} `json:"upcoming"`
		Completed []json.RawMessage `json:"completed"`
	}
	decode(t, doJSON(t, app.login(t, "client@example.com"), http.MethodGet, app.server.URL+"/api/bookings", nil), &view)
	if len(view.Upcoming) != 1 || len(view.Upcoming[0].Actions) != 1 || view.Upcoming[0].Actions[0] != "cancel" || len(view.Completed) != 1 {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestCreateBookingLeavesNotificationsToRemote(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "client@example.com")

	var res service.BookingResult
	resp := doJSON(t, c, http.MethodPost, app.server.URL+"/api/tours/1/bookings",
		service.BookingForm{Date: "2026-11-01", Guests: 2, ClientName: "Анна"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	decode(t, resp, &res)
	if res.Booking == nil || res.Notice.Title != "Бронирование создано!" {
		t.Errorf("unexpected result %+v", res)
	}

	stats := app.remote.get()
	if stats.created != 1 {
		t.Errorf("create calls = %d, want 1", stats.created)
	}
	if n := stats.chatActions["create_notification"]; n != 0 {
		t.Errorf("booking created %d extra notifications", n)
	}
}

func TestBookingStatusChanges(t *testing.T) {
	app := newTestApp(t, 100)
	client := app.login(t, "client@example.com")
	guide := app.login(t, "guide@example.com")

	tests := []struct {
		name   string
		client *http.Client
		path   string
		want   int
	}{
		{"client cannot confirm", client, "/api/guide/bookings/1/confirm", http.StatusForbidden},
		{"client cannot cancel foreign booking", client, "/api/bookings/999/cancel", http.StatusNotFound},
		{"client cancels own booking", client, "/api/bookings/1/cancel", http.StatusOK},
		{"guide confirms", guide, "/api/guide/bookings/1/confirm", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.client, http.MethodPost, app.server.URL+tt.path, nil)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	got := app.remote.get().statusChanges
	if len(got) != 2 || got[0] != "cancel:1" || got[1] != "confirm:1" {
		t.Errorf("unexpected status changes %v", got)
	}
}

func TestOpenNotification(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "client@example.com")

	resp := doJSON(t, c, http.MethodPost, app.server.URL+"/api/notifications/11/open", nil)
	resp.Body.Close()
	if app.remote.get().markRead != 0 {
		t.Errorf("read notification triggered %d mark-read calls", app.remote.get().markRead)
	}

	var res service.OpenResult
	decode(t, doJSON(t, c, http.MethodPost, app.server.URL+"/api/notifications/10/open", nil), &res)
	if app.remote.get().markRead != 1 {
		t.Errorf("mark-read calls = %d, want 1", app.remote.get().markRead)
	}
	if res.Bell == nil || res.Bell.UnreadCount != 0 || res.Bell.Badge != "" {
		t.Errorf("unexpected bell %+v", res.Bell)
	}
}

func TestBellStream(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "client@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, app.server.URL+"/api/notifications/stream", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") && strings.Contains(line, `"badge":"1"`) {
			return
		}
	}
	t.Fatal("bell event with badge not received")
}

func pngFile(t *testing.T) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadImagesRespectsLimit(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "guide@example.com")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	data := pngFile(t)
	for i := 0; i < 16; i++ {
		part, err := w.CreateFormFile("images", fmt.Sprintf("img-%02d.png", i))
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/guide/draft/images", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var view service.DraftView
	decode(t, resp, &view)
	if len(view.Images) != 15 {
		t.Errorf("slots = %d, want 15", len(view.Images))
	}
	if len(view.Notices) != 1 {
		t.Errorf("notices = %+v, want one limit notice", view.Notices)
	}

	app.forms.Wait(2)
	if app.remote.get().uploads != 15 {
		t.Errorf("uploads = %d, want 15", app.remote.get().uploads)
	}
}

func TestSubmitDraftRequiresFields(t *testing.T) {
	app := newTestApp(t, 100)
	resp := doJSON(t, app.login(t, "guide@example.com"), http.MethodPost, app.server.URL+"/api/guide/draft/submit", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body struct {
		Fields []string `json:"fields"`
	}
	decode(t, resp, &body)
	if len(body.Fields) == 0 {
		t.Error("missing fields not reported")
	}
}

func TestRejectTourRequiresReason(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "admin@example.com")

	resp := doJSON(t, c, http.MethodPost, app.server.URL+"/api/admin/tours/1/reject", map[string]string{"reason": " "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var res service.ModerationResult
	decode(t, doJSON(t, c, http.MethodPost, app.server.URL+"/api/admin/tours/1/approve", nil), &res)
	if res.Notice.Title != "Тур одобрен!" || res.Queue == nil || len(res.Queue.Pending) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(app.remote.get().moderated) != 1 || app.remote.get().moderated[0].Action != "approve" {
		t.Errorf("moderation requests %+v", app.remote.get().moderated)
	}
}

func TestChatStream(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.login(t, "client@example.com")

	u := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/api/bookings/5/chat"
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(mustURL(t, app.server.URL)) {
		header.Add("Cookie", ck.Name+"="+ck.Value)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatCommand{Type: "send", Text: "Где встречаемся?"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg struct {
			Type string               `json:"type"`
			Chat service.ChatSnapshot `json:"chat"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "snapshot" && len(msg.Chat.Messages) == 1 {
			if !msg.Chat.Messages[0].Own || msg.Chat.Draft != "" {
				t.Errorf("unexpected snapshot %+v", msg.Chat)
			}
			return
		}
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
