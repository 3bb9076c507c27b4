package notifier

import (
	"context"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"go.uber.org/zap"
)

// Gate answers "has this notification already gone out" and records sends.
// It fails closed: when the log cannot be read nothing is sent.
type Gate struct {
	store notification.Log
	log   *zap.Logger
}

func NewGate(store notification.Log, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{store: store, log: log.With(zap.String("component", "notifier.gate"))}
}

func (g *Gate) ShouldSend(ctx context.Context, key notification.Key) bool {
	exists, err := g.store.Exists(ctx, key)
	if err != nil {
		g.log.Warn("dedupe lookup failed, not sending", zap.String("key", key.String()), zap.Error(err))
		return false
	}
	return !exists
}

// MarkSent never fails the caller; a record that already exists is fine.
func (g *Gate) MarkSent(ctx context.Context, key notification.Key, at time.Time) {
	inserted, err := g.store.Insert(ctx, &notification.Record{Key: key, SentAt: at})
	if err != nil {
		g.log.Warn("mark sent failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	if !inserted {
		g.log.Debug("already marked", zap.String("key", key.String()))
	}
}
