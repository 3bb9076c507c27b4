package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/outbox"
	"github.com/google/uuid"
)

// Locations prefers the stored location and falls back to a configured default.
type Locations struct {
	R       location.Repo
	Default *location.Location
}

func (a Locations) Get(ctx context.Context) (*location.Location, error) {
	l, err := a.R.Get(ctx)
	if err != nil {
		return nil, err
	}
	if l.Set() {
		return l, nil
	}
	if a.Default.Set() {
		d := *a.Default
		return &d, nil
	}
	return nil, nil
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PublishingLog stores the dedupe record and, in the same transaction, queues a
// notification-sent event for the relay.
type PublishingLog struct {
	Log    notification.Log
	Outbox outbox.Repository
	Tx     Transactor
}

var _ notification.Log = PublishingLog{}

func (p PublishingLog) Exists(ctx context.Context, key notification.Key) (bool, error) {
	return p.Log.Exists(ctx, key)
}

func (p PublishingLog) Insert(ctx context.Context, rec *notification.Record) (bool, error) {
	var inserted bool
	err := p.Tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := p.Log.Insert(ctx, rec)
		if err != nil || !ok {
			return err
		}
		inserted = true

		data, err := json.Marshal(notification.SentEvent{
			EventID: uuid.NewString(),
			Key:     rec.Key,
			SentAt:  rec.SentAt,
		})
		if err != nil {
			return fmt.Errorf("marshal sent event: %w", err)
		}
		return p.Outbox.Enqueue(ctx, "notification_sent:"+rec.Key.String(), outbox.KindNotificationSent, data)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}
