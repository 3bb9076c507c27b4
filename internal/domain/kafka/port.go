package kafka

import (
	"context"

	"github.com/NordCoder/Reminderus/internal/domain/notification"
)

type NotificationEvents interface {
	PublishNotificationSent(ctx context.Context, ev notification.SentEvent) error
}
