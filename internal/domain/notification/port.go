package notification

import "context"

// Log is the dedupe store. Insert reports false when a record for the key already
// exists; the store must reject duplicates itself (unique constraint).
type Log interface {
	Exists(ctx context.Context, key Key) (bool, error)
	Insert(ctx context.Context, r *Record) (bool, error)
}
