package kafka

import (
	"context"

	"github.com/NordCoder/Reminderus/internal/domain/kafka"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/google/uuid"
)

type NotificationEventsKafka struct {
	p *Producer
}

func NewNotificationEventsKafka(p *Producer) *NotificationEventsKafka {
	return &NotificationEventsKafka{p: p}
}

var _ kafka.NotificationEvents = (*NotificationEventsKafka)(nil)

// PublishNotificationSent keys messages by dedupe key so one notification always
// lands on the same partition.
func (e *NotificationEventsKafka) PublishNotificationSent(ctx context.Context, ev notification.SentEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	return e.p.PublishJSON(ctx, []byte(ev.Key.String()), ev)
}
