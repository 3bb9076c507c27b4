package prayers

import (
	"context"
	"sync"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	"github.com/NordCoder/Reminderus/internal/prayer"
)

type fakeLocations struct{ l *location.Location }

func (f *fakeLocations) Get(context.Context) (*location.Location, error) { return f.l, nil }
func (f *fakeLocations) Upsert(_ context.Context, l *location.Location) error {
	f.l = l
	return nil
}

type fetchCall struct {
	lat, lng float64
	date     string
}

type fakeTimings struct {
	mu    sync.Mutex
	calls []fetchCall
	tz    string
	clock map[prayer.Name]string
	err   error
}

func (f *fakeTimings) Fetch(_ context.Context, lat, lng float64, date string) (prayer.TimingSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{lat, lng, date})
	if f.err != nil {
		return prayer.TimingSet{}, f.err
	}
	if date == "" {
		date = "2024-06-01"
	}
	timings := make(map[prayer.Name]string, len(f.clock))
	for k, v := range f.clock {
		timings[k] = v
	}
	return prayer.TimingSet{Date: date, Timezone: f.tz, Timings: timings}, nil
}

func fullDay() map[prayer.Name]string {
	return map[prayer.Name]string{
		prayer.Fajr:    "05:00",
		prayer.Dhuhr:   "12:15",
		prayer.Asr:     "15:45 (PKT)",
		prayer.Maghrib: "18:30",
		prayer.Isha:    "19:50",
	}
}

type fakeLog struct {
	entries map[string]*prayerlog.Entry
	err     error
}

func newFakeLog() *fakeLog { return &fakeLog{entries: map[string]*prayerlog.Entry{}} }

func (f *fakeLog) IsCompleted(_ context.Context, id, date string) (bool, error) {
	e, ok := f.entries[id+"@"+date]
	return ok && e.Completed, f.err
}

func (f *fakeLog) ListByDate(_ context.Context, date string) ([]*prayerlog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*prayerlog.Entry
	for _, e := range f.entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLog) ListRange(_ context.Context, from, to string) ([]*prayerlog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*prayerlog.Entry
	for _, e := range f.entries {
		if e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLog) Upsert(_ context.Context, e *prayerlog.Entry) error {
	if f.err != nil {
		return f.err
	}
	cp := *e
	f.entries[e.PrayerID+"@"+e.Date] = &cp
	return nil
}

type fakeSender struct {
	sent []notification.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m notification.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}
