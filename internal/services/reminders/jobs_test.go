package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/event"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clockAt time.Time

func (c clockAt) Now() time.Time { return time.Time(c) }

type memGate struct{ sent map[notification.Key]bool }

func newMemGate() *memGate { return &memGate{sent: map[notification.Key]bool{}} }

func (g *memGate) ShouldSend(_ context.Context, k notification.Key) bool { return !g.sent[k] }
func (g *memGate) MarkSent(_ context.Context, k notification.Key, _ time.Time) {
	g.sent[k] = true
}

type mailbox struct {
	msgs []notification.Message
	err  error
}

func (o *mailbox) Send(_ context.Context, m notification.Message) error {
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, m)
	return nil
}

type eventsByDate map[string][]*event.Event

func (e eventsByDate) ListByDate(_ context.Context, date string) ([]*event.Event, error) {
	return e[date], nil
}

type taskStore struct {
	due      []*task.Task
	reminded []int64
}

func (s *taskStore) ListDueUnreminded(context.Context, time.Time, int) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range s.due {
		if !t.ReminderSent {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *taskStore) MarkReminded(_ context.Context, id int64) error {
	for _, t := range s.due {
		if t.ID == id {
			t.ReminderSent = true
		}
	}
	s.reminded = append(s.reminded, id)
	return nil
}

func TestEventDigest(t *testing.T) {
	gate := newMemGate()
	mail := &mailbox{}
	j := &EventDigest{
		Events: eventsByDate{"2024-06-02": {{ID: 1, Title: "Exam"}, {ID: 2, Title: "Dentist"}}},
		Gate:   gate,
		Sender: mail,
		Clock:  clockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		Loc:    time.UTC,
		Log:    zap.NewNop(),
	}

	require.NoError(t, j.Run(context.Background()))
	require.NoError(t, j.Run(context.Background()))

	require.Len(t, mail.msgs, 1)
	assert.Equal(t, "Event reminder for tomorrow", mail.msgs[0].Subject)
	assert.Equal(t, "You have events scheduled for tomorrow (2024-06-02):\n- Exam\n- Dentist", mail.msgs[0].Text)
	assert.True(t, gate.sent[notification.Key{Type: notification.TypeEventReminder, Date: "2024-06-02", RefID: "daily"}])
}

func TestEventDigest_NoEventsNoMail(t *testing.T) {
	mail := &mailbox{}
	j := &EventDigest{
		Events: eventsByDate{},
		Gate:   newMemGate(),
		Sender: mail,
		Clock:  clockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		Loc:    time.UTC,
		Log:    zap.NewNop(),
	}
	require.NoError(t, j.Run(context.Background()))
	assert.Empty(t, mail.msgs)
}

func TestEventDigest_SendFailureNotMarked(t *testing.T) {
	gate := newMemGate()
	j := &EventDigest{
		Events: eventsByDate{"2024-06-02": {{ID: 1, Title: "Exam"}}},
		Gate:   gate,
		Sender: &mailbox{err: errors.New("smtp")},
		Clock:  clockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		Loc:    time.UTC,
		Log:    zap.NewNop(),
	}
	assert.Error(t, j.Run(context.Background()))
	assert.Empty(t, gate.sent)
}

func TestDueTasks(t *testing.T) {
	due := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store := &taskStore{due: []*task.Task{
		{ID: 7, Text: "Submit report", DueAt: due},
		{ID: 8, Text: "Call home", DueAt: due},
	}}
	gate := newMemGate()
	mail := &mailbox{}
	j := &DueTasks{
		Tasks:  store,
		Gate:   gate,
		Sender: mail,
		Clock:  clockAt(due.Add(time.Minute)),
		Loc:    time.UTC,
		Log:    zap.NewNop(),
	}

	require.NoError(t, j.Run(context.Background()))
	require.NoError(t, j.Run(context.Background()))

	require.Len(t, mail.msgs, 2)
	assert.Equal(t, "Task reminder", mail.msgs[0].Subject)
	assert.Equal(t, "Reminder: Submit report (due at 2024-06-01 09:30 UTC)", mail.msgs[0].Text)
	assert.Equal(t, []int64{7, 8}, store.reminded)
	assert.True(t, gate.sent[notification.Key{Type: notification.TypeTaskDue, Date: "2024-06-01", RefID: "7"}])
}

func TestDueTasks_AlreadyMailedIsOnlyFlagged(t *testing.T) {
	due := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store := &taskStore{due: []*task.Task{{ID: 7, Text: "x", DueAt: due}}}
	gate := newMemGate()
	gate.sent[notification.Key{Type: notification.TypeTaskDue, Date: "2024-06-01", RefID: "7"}] = true
	mail := &mailbox{}

	j := &DueTasks{Tasks: store, Gate: gate, Sender: mail, Clock: clockAt(due), Loc: time.UTC, Log: zap.NewNop()}
	require.NoError(t, j.Run(context.Background()))
	assert.Empty(t, mail.msgs)
	assert.Equal(t, []int64{7}, store.reminded)
}

func TestDueTasks_SendFailureKeepsTaskPending(t *testing.T) {
	due := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store := &taskStore{due: []*task.Task{{ID: 7, Text: "x", DueAt: due}}}
	j := &DueTasks{
		Tasks: store, Gate: newMemGate(), Sender: &mailbox{err: errors.New("smtp")},
		Clock: clockAt(due), Loc: time.UTC, Log: zap.NewNop(),
	}
	assert.Error(t, j.Run(context.Background()))
	assert.Empty(t, store.reminded)
	assert.False(t, store.due[0].ReminderSent)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestKeepAlive(t *testing.T) {
	assert.NoError(t, (&KeepAlive{Store: pinger{}, Timeout: time.Second}).Run(context.Background()))
	assert.Error(t, (&KeepAlive{Store: pinger{err: errors.New("down")}}).Run(context.Background()))
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC, zap.NewNop(), prometheus.NewRegistry())
	assert.Error(t, s.Add("bad", "every minute", func(context.Context) error { return nil }))
	assert.NoError(t, s.Add("off", "", func(context.Context) error { return nil }))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := NewScheduler(time.UTC, zap.NewNop(), prometheus.NewRegistry())
	fired := make(chan struct{}, 4)
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
