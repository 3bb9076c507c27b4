package event

import "context"

type Repo interface {
	ListByDate(ctx context.Context, date string) ([]*Event, error)
}
