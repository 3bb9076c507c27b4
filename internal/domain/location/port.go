package location

import "context"

// Repo stores the single user location. Get returns (nil, nil) when none is saved.
type Repo interface {
	Get(ctx context.Context) (*Location, error)
	Upsert(ctx context.Context, l *Location) error
}
