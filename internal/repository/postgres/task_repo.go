package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/task"
)

var _ task.Repo = (*TaskRepo)(nil)

type TaskRepo struct{ db *DB }

func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const (
	qTasksDue = `
SELECT id, text, due_at, reminder_sent
FROM tasks
WHERE reminder_sent = false
  AND due_at IS NOT NULL
  AND due_at <= $1
ORDER BY due_at, id
LIMIT $2;`

	qTaskReminded = `
UPDATE tasks SET reminder_sent = true
WHERE id = $1;`
)

func (r *TaskRepo) ListDueUnreminded(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.conn(ctx).Query(ctx, qTasksDue, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	out := make([]*task.Task, 0, limit)
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.DueAt, &t.ReminderSent); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TaskRepo) MarkReminded(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.conn(ctx).Exec(ctx, qTaskReminded, id)
	if err != nil {
		return fmt.Errorf("mark task reminded: %w", err)
	}
	return expectRow(tag, "task", id)
}
