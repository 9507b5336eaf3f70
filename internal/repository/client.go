package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// UserIDHeader задаёт заголовок, в котором удалённые функции ожидают ID пользователя.
const UserIDHeader = "X-User-Id"

// APIError представляет ответ удалённой функции с кодом вне диапазона 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusCode возвращает HTTP-код ошибки удалённого сервиса или 0, если ошибка другого рода.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client представляет общий HTTP-клиент для всех удалённых функций.
type Client struct {
	http    *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewClient создаёт клиент. httpClient может быть nil, тогда используется клиент с таймаутом.
func NewClient(httpClient *http.Client, logger *logrus.Logger, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Client{http: httpClient, logger: logger, metrics: m}
}

// remote представляет одну удалённую функцию со своим адресом и предохранителем.
type remote struct {
	client  *Client
	name    string
	baseURL string
	breaker *gobreaker.CircuitBreaker
}

func (c *Client) remote(name, baseURL string) *remote {
	return &remote{
		client:  c,
		name:    name,
		baseURL: baseURL,
		breaker: newBreaker(name, c.logger),
	}
}

// newBreaker размыкает цепь после трёх подряд сетевых ошибок или ответов 5xx.
// Ответы 4xx и отменённые запросы не считаются отказом сервиса.
func newBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"service": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			code := StatusCode(err)
			return code >= 400 && code < 500
		},
	})
}

type request struct {
	method   string
	query    url.Values
	userID   int
	body     any
	fallback string
}

type errorBody struct {
	Error string `json:"error"`
}

// call выполняет запрос и декодирует JSON-ответ в out (если out не nil).
func (r *remote) call(ctx context.Context, req request, out any) error {
	start := time.Now()
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.do(ctx, req, out)
	})
	r.client.metrics.RemoteDuration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "open"
		err = fmt.Errorf("%s: %w", req.fallback, err)
	default:
		outcome = "error"
	}
	r.client.metrics.RemoteRequests.WithLabelValues(r.name, outcome).Inc()

	if err != nil {
		r.client.logger.WithFields(logrus.Fields{
			"service": r.name,
			"method":  req.method,
			"status":  StatusCode(err),
		}).WithError(err).Debug("remote call failed")
	}
	return err
}

func (r *remote) do(ctx context.Context, req request, out any) error {
	target := r.baseURL
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("не удалось сериализовать запрос: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", req.fallback, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.userID != 0 {
		httpReq.Header.Set(UserIDHeader, strconv.Itoa(req.userID))
	}

	resp, err := r.client.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", req.fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: req.fallback}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: некорректный ответ: %w", req.fallback, err)
	}
	return nil
}

func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}
