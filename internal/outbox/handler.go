package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/kafka"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/outbox"
	"github.com/NordCoder/Reminderus/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type handlerMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func newHandlerMetrics(reg prometheus.Registerer) *handlerMetrics {
	f := promauto.With(reg)
	return &handlerMetrics{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outbox_handler_latency_seconds",
			Help:    "Latency of outbox handlers including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_handler_errors_total",
			Help: "Errors in outbox handlers (after retries).",
		}, []string{"kind"}),
	}
}

func (m *handlerMetrics) instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		span.SetAttributes(attribute.String("outbox.kind", kind))
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		m.latency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			m.errors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// NewDispatch maps outbox kinds to publishers. Each handler retries
// according to pol before the message is left for the next pick.
func NewDispatch(pub kafka.NotificationEvents, pol retry.Policy, reg prometheus.Registerer) outbox.Dispatch {
	m := newHandlerMetrics(reg)
	sent := m.instrument(outbox.KindNotificationSent.String(), func(ctx context.Context, data []byte) error {
		var ev notification.SentEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("unmarshal notification-sent payload: %w", err)
		}
		return pub.PublishNotificationSent(ctx, ev)
	}, pol)

	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindNotificationSent:
			return sent, nil
		default:
			return nil, fmt.Errorf("%w: %s", outbox.ErrUnknownKind, kind)
		}
	}
}
