package prayerlog

import "context"

type Repo interface {
	IsCompleted(ctx context.Context, prayerID, date string) (bool, error)
	ListByDate(ctx context.Context, date string) ([]*Entry, error)
	// ListRange returns entries with from <= date <= to, ordered by date.
	ListRange(ctx context.Context, from, to string) ([]*Entry, error)
	Upsert(ctx context.Context, e *Entry) error
}
