package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/prayer"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeLocations struct {
	loc *location.Location
	err error
}

func (f *fakeLocations) Get(context.Context) (*location.Location, error) { return f.loc, f.err }

type fakeTimings struct {
	mu    sync.Mutex
	sets  map[string]prayer.TimingSet
	err   error
	calls []string
}

func (f *fakeTimings) Fetch(_ context.Context, _, _ float64, date string) (prayer.TimingSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	if f.err != nil {
		return prayer.TimingSet{}, f.err
	}
	ts, ok := f.sets[date]
	if !ok {
		return prayer.TimingSet{Date: date}, nil
	}
	cp := ts
	cp.Timings = make(map[prayer.Name]string, len(ts.Timings))
	for k, v := range ts.Timings {
		cp.Timings[k] = v
	}
	return cp, nil
}

type fakeCompletions struct {
	done map[string]bool
	err  error
	asks []string
}

func (f *fakeCompletions) IsCompleted(_ context.Context, prayerID, date string) (bool, error) {
	f.asks = append(f.asks, prayerID+"@"+date)
	if f.err != nil {
		return false, f.err
	}
	return f.done[prayerID+"@"+date], nil
}

// memLog behaves like a table with a unique constraint on the key.
type memLog struct {
	mu        sync.Mutex
	rows      map[notification.Key]notification.Record
	existsErr error
	insertErr error
}

func newMemLog() *memLog { return &memLog{rows: map[notification.Key]notification.Record{}} }

func (m *memLog) Exists(_ context.Context, key notification.Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.rows[key]
	return ok, nil
}

func (m *memLog) Insert(_ context.Context, r *notification.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, ok := m.rows[r.Key]; ok {
		return false, nil
	}
	r.ID = int64(len(m.rows) + 1)
	m.rows[r.Key] = *r
	return true, nil
}

func (m *memLog) has(k notification.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[k]
	return ok
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []notification.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg notification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSender) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Subject)
	}
	return out
}
