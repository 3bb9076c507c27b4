package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/jackc/pgx/v5"
)

var _ notification.Log = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const (
	qNotifExists = `
SELECT EXISTS (
  SELECT 1 FROM notification_log
  WHERE type = $1 AND reference_date = $2::date AND reference_id = $3
);`

	qNotifInsert = `
INSERT INTO notification_log (type, reference_date, reference_id, sent_at)
VALUES ($1, $2::date, $3, COALESCE($4, now()))
ON CONFLICT (type, reference_date, reference_id) DO NOTHING
RETURNING id, sent_at;`
)

func (r *NotificationRepoImpl) Exists(ctx context.Context, key notification.Key) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.conn(ctx).QueryRow(ctx, qNotifExists, string(key.Type), key.Date, key.RefID).Scan(&ok); err != nil {
		return false, fmt.Errorf("notification exists: %w", err)
	}
	return ok, nil
}

// Insert relies on the unique constraint; a conflicting row yields (false, nil).
func (r *NotificationRepoImpl) Insert(ctx context.Context, rec *notification.Record) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.conn(ctx).QueryRow(ctx, qNotifInsert,
		string(rec.Key.Type),
		rec.Key.Date,
		rec.Key.RefID,
		nullTime(rec.SentAt),
	).Scan(&rec.ID, &rec.SentAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case isUniqueViolation(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
