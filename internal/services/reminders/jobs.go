package reminders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/event"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/task"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"go.uber.org/zap"
)

type Gate interface {
	ShouldSend(ctx context.Context, key notification.Key) bool
	MarkSent(ctx context.Context, key notification.Key, at time.Time)
}

// EventDigest mails the list of tomorrow's events once per day.
type EventDigest struct {
	Events event.Repo
	Gate   Gate
	Sender notification.EmailSender
	Clock  notification.Clock
	Loc    *time.Location
	Log    *zap.Logger
}

func (j *EventDigest) Run(ctx context.Context) error {
	now := j.Clock.Now()
	tomorrow := now.In(j.Loc).AddDate(0, 0, 1).Format(prayer.DateLayout)

	events, err := j.Events.ListByDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("list events for %s: %w", tomorrow, err)
	}
	if len(events) == 0 {
		return nil
	}

	key := notification.Key{Type: notification.TypeEventReminder, Date: tomorrow, RefID: "daily"}
	if !j.Gate.ShouldSend(ctx, key) {
		return nil
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, "- "+e.Title)
	}
	msg := notification.Message{
		Subject: "Event reminder for tomorrow",
		Text:    fmt.Sprintf("You have events scheduled for tomorrow (%s):\n%s", tomorrow, strings.Join(lines, "\n")),
	}
	if err := j.Sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send event digest: %w", err)
	}
	j.Gate.MarkSent(ctx, key, now)
	j.Log.Info("event digest sent", zap.String("date", tomorrow), zap.Int("events", len(events)))
	return nil
}

// DueTasks sends one reminder per overdue task and flags the task afterwards.
type DueTasks struct {
	Tasks  task.Repo
	Gate   Gate
	Sender notification.EmailSender
	Clock  notification.Clock
	Loc    *time.Location
	Batch  int
	Log    *zap.Logger
}

func (j *DueTasks) Run(ctx context.Context) error {
	now := j.Clock.Now()
	tasks, err := j.Tasks.ListDueUnreminded(ctx, now, j.Batch)
	if err != nil {
		return fmt.Errorf("list due tasks: %w", err)
	}

	var errs []error
	for _, t := range tasks {
		due := t.DueAt.In(j.Loc)
		key := notification.Key{
			Type:  notification.TypeTaskDue,
			Date:  due.Format(prayer.DateLayout),
			RefID: strconv.FormatInt(t.ID, 10),
		}

		// Already mailed on an earlier run that died before flagging the task.
		if !j.Gate.ShouldSend(ctx, key) {
			if err := j.Tasks.MarkReminded(ctx, t.ID); err != nil {
				errs = append(errs, fmt.Errorf("task %d: %w", t.ID, err))
			}
			continue
		}

		msg := notification.Message{
			Subject: "Task reminder",
			Text:    fmt.Sprintf("Reminder: %s (due at %s)", t.Text, due.Format("2006-01-02 15:04 MST")),
		}
		if err := j.Sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("task %d: send: %w", t.ID, err))
			continue
		}
		j.Gate.MarkSent(ctx, key, now)
		if err := j.Tasks.MarkReminded(ctx, t.ID); err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", t.ID, err))
			continue
		}
		j.Log.Info("task reminder sent", zap.Int64("task_id", t.ID))
	}
	return errors.Join(errs...)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// KeepAlive touches the store so an idle hosted database is not paused.
type KeepAlive struct {
	Store   Pinger
	Timeout time.Duration
}

func (j *KeepAlive) Run(ctx context.Context) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := j.Store.Ping(ctx); err != nil {
		return fmt.Errorf("keep-alive ping: %w", err)
	}
	return nil
}
