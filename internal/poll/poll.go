// Package poll превращает периодический опрос удалённого сервиса в подписку
// с отменой, привязанной к времени жизни подписчика.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Fetcher загружает актуальный снимок состояния.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Result представляет результат одного опроса.
type Result[T any] struct {
	Value T
	Err   error
	At    time.Time
}

type options struct {
	name    string
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

type Option func(*options)

// WithName задаёт имя потока для метрик и логов.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.logger = l }
}

// Subscription опрашивает источник сразу после создания и затем раз в интервал.
// Опросы не перекрываются: тики, пришедшие во время запроса, пропускаются.
// Stop отменяет текущий запрос, и после него обновления не доставляются.
type Subscription[T any] struct {
	fetch    Fetcher[T]
	interval time.Duration
	opts     options

	updates chan Result[T]
	refresh chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.RWMutex
	last    Result[T]
	hasLast bool
}

const defaultInterval = 10 * time.Second

// Subscribe запускает подписку. Она живёт, пока не отменён ctx или не вызван Stop.
func Subscribe[T any](ctx context.Context, interval time.Duration, fetch Fetcher[T], opts ...Option) *Subscription[T] {
	if interval <= 0 {
		interval = defaultInterval
	}
	o := options{name: "poll"}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		fetch:    fetch,
		interval: interval,
		opts:     o,
		updates:  make(chan Result[T], 1),
		refresh:  make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Updates отдаёт результаты опросов. Медленный читатель получает только последний результат.
// Канал закрывается после остановки подписки.
func (s *Subscription[T]) Updates() <-chan Result[T] {
	return s.updates
}

// Refresh запрашивает внеочередной опрос.
func (s *Subscription[T]) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Latest возвращает последний полученный результат.
func (s *Subscription[T]) Latest() (Result[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// Stop останавливает опрос и прерывает запрос, который ещё выполняется.
func (s *Subscription[T]) Stop() {
	s.cancel()
	<-s.done
}

// Done закрывается, когда подписка полностью остановлена.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		case <-s.refresh:
			s.poll(ctx)
		}
	}
}

func (s *Subscription[T]) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.opts.metrics != nil {
		s.opts.metrics.PollTicks.WithLabelValues(s.opts.name).Inc()
	}

	v, err := s.fetch(ctx)
	if ctx.Err() != nil {
		// подписка остановлена, пока шёл запрос
		return
	}
	if err != nil {
		if s.opts.metrics != nil {
			s.opts.metrics.PollErrors.WithLabelValues(s.opts.name).Inc()
		}
		if s.opts.logger != nil {
			s.opts.logger.WithError(err).WithField("stream", s.opts.name).Warn("polling fetch failed")
		}
	}

	r := Result[T]{Value: v, Err: err, At: time.Now()}
	s.mu.Lock()
	s.last = r
	s.hasLast = true
	s.mu.Unlock()

	for {
		select {
		case s.updates <- r:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
