package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/jackc/pgx/v5"
)

var _ location.Repo = (*LocationRepo)(nil)

// LocationRepo keeps the single settings row (id = 1).
type LocationRepo struct{ db *DB }

func NewLocationRepo(db *DB) *LocationRepo { return &LocationRepo{db: db} }

const (
	qLocationGet = `
SELECT latitude, longitude, COALESCE(timezone, ''), updated_at
FROM user_settings
WHERE id = 1;`

	qLocationUpsert = `
INSERT INTO user_settings (id, latitude, longitude, timezone, updated_at)
VALUES (1, $1, $2, NULLIF($3, ''), now())
ON CONFLICT (id) DO UPDATE
SET latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    timezone = EXCLUDED.timezone,
    updated_at = now()
RETURNING updated_at;`
)

func (r *LocationRepo) Get(ctx context.Context) (*location.Location, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		l        location.Location
		lat, lng *float64
	)
	err := r.db.conn(ctx).QueryRow(ctx, qLocationGet).Scan(&lat, &lng, &l.Timezone, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if lat == nil || lng == nil {
		return nil, nil
	}
	l.Lat, l.Lng = *lat, *lng
	return &l, nil
}

func (r *LocationRepo) Upsert(ctx context.Context, l *location.Location) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.conn(ctx).QueryRow(ctx, qLocationUpsert, l.Lat, l.Lng, l.Timezone).Scan(&l.UpdatedAt); err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}
