package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

// Kind is persisted as an integer; values must never be renumbered.
type Kind int

const (
	KindNotificationSent Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindNotificationSent:
		return "notification_sent"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

var ErrUnknownKind = errors.New("unknown outbox kind")

// Message is one pending event. The trace fields hold the W3C context of the
// code that enqueued it so the relay can continue that trace.
type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Traceparent    string
	Tracestate     string
	Baggage        string
}

// TraceHeaders returns the stored trace context keyed by W3C header name.
func (m Message) TraceHeaders() map[string]string {
	return map[string]string{
		"traceparent": m.Traceparent,
		"tracestate":  m.Tracestate,
		"baggage":     m.Baggage,
	}
}

type Repository interface {
	// Enqueue is a no-op for a key that is already stored.
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error
	// PickBatch claims up to batch messages that are new or stuck in progress
	// for longer than inProgressTTL.
	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)
	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

// Dispatch resolves the handler for a kind, or fails with ErrUnknownKind.
type Dispatch func(kind Kind) (KindHandler, error)
