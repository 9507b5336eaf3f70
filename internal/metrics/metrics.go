package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	PollTicks      *prometheus.CounterVec
	PollErrors     *prometheus.CounterVec
	Uploads        *prometheus.CounterVec
	ActiveStreams  *prometheus.GaugeVec
	TelegramSent   prometheus.Counter
}

// New регистрирует метрики в переданном реестре. nil означает реестр по умолчанию.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RemoteRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "turgid_remote_requests_total",
			Help: "Total number of requests to remote functions by service and outcome",
		}, []string{"service", "outcome"}),

		RemoteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "turgid_remote_request_duration_seconds",
			Help:    "Duration of requests to remote functions",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),

		PollTicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "turgid_poll_fetches_total",
			Help: "Total number of polling fetches by stream",
		}, []string{"stream"}),

		PollErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "turgid_poll_errors_total",
			Help: "Total number of failed polling fetches by stream",
		}, []string{"stream"}),

		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "turgid_image_uploads_total",
			Help: "Image uploads by outcome",
		}, []string{"outcome"}),

		ActiveStreams: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "turgid_active_streams",
			Help: "Open chat and notification streams",
		}, []string{"stream"}),

		TelegramSent: f.NewCounter(prometheus.CounterOpts{
			Name: "turgid_telegram_notifications_sent_total",
			Help: "Notifications forwarded to Telegram",
		}),
	}
}

// Nop возвращает метрики в отдельном реестре, который никто не публикует. Удобно для тестов.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
