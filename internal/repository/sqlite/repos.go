package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
)

var (
	_ location.Repo    = (*LocationRepo)(nil)
	_ prayerlog.Repo   = (*PrayerLogRepo)(nil)
	_ notification.Log = (*NotificationLog)(nil)
)

type LocationRepo struct{ d *DB }

func NewLocationRepo(d *DB) *LocationRepo { return &LocationRepo{d: d} }

func (r *LocationRepo) Get(ctx context.Context) (*location.Location, error) {
	var (
		lat, lng sql.NullFloat64
		tz       sql.NullString
		updated  string
	)
	err := r.d.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, timezone, updated_at FROM user_settings WHERE id = 1`,
	).Scan(&lat, &lng, &tz, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if !lat.Valid || !lng.Valid {
		return nil, nil
	}
	l := &location.Location{Lat: lat.Float64, Lng: lng.Float64, Timezone: tz.String}
	l.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return l, nil
}

func (r *LocationRepo) Upsert(ctx context.Context, l *location.Location) error {
	now := time.Now().UTC()
	var tz any
	if l.Timezone != "" {
		tz = l.Timezone
	}
	_, err := r.d.db.ExecContext(ctx,
		`INSERT INTO user_settings (id, latitude, longitude, timezone, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   latitude = excluded.latitude,
		   longitude = excluded.longitude,
		   timezone = excluded.timezone,
		   updated_at = excluded.updated_at`,
		l.Lat, l.Lng, tz, now.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	l.UpdatedAt = now
	return nil
}

type PrayerLogRepo struct{ d *DB }

func NewPrayerLogRepo(d *DB) *PrayerLogRepo { return &PrayerLogRepo{d: d} }

func (r *PrayerLogRepo) IsCompleted(ctx context.Context, prayerID, date string) (bool, error) {
	var done bool
	err := r.d.db.QueryRowContext(ctx,
		`SELECT completed FROM prayer_logs WHERE prayer_id = ? AND log_date = ?`, prayerID, date,
	).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
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

// ListRange compares dates as text; YYYY-MM-DD sorts chronologically.
func (r *PrayerLogRepo) ListRange(ctx context.Context, from, to string) ([]*prayerlog.Entry, error) {
	rows, err := r.d.db.QueryContext(ctx,
		`SELECT prayer_id, log_date, completed FROM prayer_logs
		 WHERE log_date BETWEEN ? AND ? ORDER BY log_date, prayer_id`, from, to)
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
	_, err := r.d.db.ExecContext(ctx,
		`INSERT INTO prayer_logs (prayer_id, log_date, completed, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(prayer_id, log_date) DO UPDATE SET
		   completed = excluded.completed,
		   updated_at = excluded.updated_at`,
		e.PrayerID, e.Date, e.Completed, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert prayer log: %w", err)
	}
	return nil
}

type NotificationLog struct{ d *DB }

func NewNotificationLog(d *DB) *NotificationLog { return &NotificationLog{d: d} }

func (r *NotificationLog) Exists(ctx context.Context, key notification.Key) (bool, error) {
	var n int
	err := r.d.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM notification_log WHERE type = ? AND reference_date = ? AND reference_id = ?`,
		string(key.Type), key.Date, key.RefID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("notification exists: %w", err)
	}
	return n > 0, nil
}

func (r *NotificationLog) Insert(ctx context.Context, rec *notification.Record) (bool, error) {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	res, err := r.d.db.ExecContext(ctx,
		`INSERT INTO notification_log (type, reference_date, reference_id, sent_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(type, reference_date, reference_id) DO NOTHING`,
		string(rec.Key.Type), rec.Key.Date, rec.Key.RefID, rec.SentAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}
