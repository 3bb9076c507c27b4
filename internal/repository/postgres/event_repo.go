package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Reminderus/internal/domain/event"
)

var _ event.Repo = (*EventRepo)(nil)

type EventRepo struct{ db *DB }

func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

// event_date is a DATE, so the match does not depend on the session TimeZone.
const qEventsByDate = `
SELECT id, title, to_char(event_date, 'YYYY-MM-DD')
FROM events
WHERE event_date = $1::date
ORDER BY id;`

func (r *EventRepo) ListByDate(ctx context.Context, date string) ([]*event.Event, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.conn(ctx).Query(ctx, qEventsByDate, date)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		var e event.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
