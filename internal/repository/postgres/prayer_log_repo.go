package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	"github.com/jackc/pgx/v5"
)

var _ prayerlog.Repo = (*PrayerLogRepo)(nil)

type PrayerLogRepo struct{ db *DB }

func NewPrayerLogRepo(db *DB) *PrayerLogRepo { return &PrayerLogRepo{db: db} }

const (
	qPrayerCompleted = `
SELECT completed FROM prayer_logs
WHERE prayer_id = $1 AND log_date = $2::date;`

	qPrayerRange = `
SELECT prayer_id, to_char(log_date, 'YYYY-MM-DD'), completed
FROM prayer_logs
WHERE log_date BETWEEN $1::date AND $2::date
ORDER BY log_date, prayer_id;`

	qPrayerUpsert = `
INSERT INTO prayer_logs (prayer_id, log_date, completed)
VALUES ($1, $2::date, $3)
ON CONFLICT (prayer_id, log_date) DO UPDATE
SET completed = EXCLUDED.completed, updated_at = now();`
)

func (r *PrayerLogRepo) IsCompleted(ctx context.Context, prayerID, date string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var done bool
	err := r.db.conn(ctx).QueryRow(ctx, qPrayerCompleted, prayerID, date).Scan(&done)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prayer completed: %w", err)
	}
	return done, nil
}

func (r *PrayerLogRepo) ListByDate(ctx context.Context, date string) ([]*prayerlog.Entry, error) {
	return r.ListRange(ctx, date, date)
}

func (r *PrayerLogRepo) ListRange(ctx context.Context, from, to string) ([]*prayerlog.Entry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.conn(ctx).Query(ctx, qPrayerRange, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prayer logs: %w", err)
	}
	defer rows.Close()

	var out []*prayerlog.Entry
	for rows.Next() {
		var e prayerlog.Entry
		if err := rows.Scan(&e.PrayerID, &e.Date, &e.Completed); err != nil {
			return nil, fmt.Errorf("scan prayer log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PrayerLogRepo) Upsert(ctx context.Context, e *prayerlog.Entry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.conn(ctx).Exec(ctx, qPrayerUpsert, e.PrayerID, e.Date, e.Completed); err != nil {
		return fmt.Errorf("upsert prayer log: %w", err)
	}
	return nil
}
