package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && time.Duration(d) > b.Max {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		j := 1 + (rand.Float64()*2-1)*b.Jitter
		d *= j
	}
	return time.Duration(d)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
	// Metrics is optional.
	Metrics *Metrics
}

type Metrics struct {
	attempts  *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total retry attempts (including final).",
		}, []string{"name"}),
		exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "retry_exhausted_total",
			Help: "Operations that exhausted all retries.",
		}, []string{"name"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retry_duration_seconds",
			Help:    "Total time spent inside retry.Do (success or fail).",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}
}

func (m *Metrics) attempt(name string) {
	if m != nil {
		m.attempts.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) exhaust(name string) {
	if m != nil {
		m.exhausted.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) observe(name string, start time.Time) {
	if m != nil {
		m.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func Do(ctx context.Context, fn func() error, p Policy) error {
	start := time.Now()
	name := p.Name
	if name == "" {
		name = "default"
	}

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := p.Backoff
	if backoff == nil {
		backoff = ExpoJitter{Base: 100 * time.Millisecond, Max: 5 * time.Second}
	}

	isRetryable := p.Retryable
	if isRetryable == nil {
		isRetryable = func(err error) bool { return err != nil }
	}

	var err error
	span := trace.SpanFromContext(ctx)

	for i := 0; i < attempts; i++ {
		err = fn()
		p.Metrics.attempt(name)
		if err == nil {
			p.Metrics.observe(name, start)
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		if span.IsRecording() {
			span.AddEvent("retry.attempt", trace.WithAttributes(attribute.Int("attempt", i+1), attribute.String("error", err.Error())))
		}
		if !isRetryable(err) || i == attempts-1 {
			p.Metrics.exhaust(name)
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			p.Metrics.observe(name, start)
			return err
		}
		wait := backoff.Next(i)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			p.Metrics.observe(name, start)
			return ctx.Err()
		case <-t.C:
		}
	}
	p.Metrics.observe(name, start)
	return err
}
