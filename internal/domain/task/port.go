package task

import (
	"context"
	"time"
)

type Repo interface {
	ListDueUnreminded(ctx context.Context, now time.Time, limit int) ([]*Task, error)
	MarkReminded(ctx context.Context, id int64) error
}
