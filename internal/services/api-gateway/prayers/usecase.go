package prayers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownPrayer = errors.New("unknown prayer")
	ErrMailDisabled  = errors.New("mail is not configured")
)

type TimingsSource interface {
	Fetch(ctx context.Context, lat, lng float64, date string) (prayer.TimingSet, error)
}

// Query overrides the stored location. Lat and Lng are used only as a pair.
type Query struct {
	Lat      *float64
	Lng      *float64
	Date     string
	Timezone string
}

type TimingsView struct {
	Date     string                 `json:"date"`
	Timezone string                 `json:"timezone"`
	Timings  map[prayer.Name]string `json:"timings"`
	Windows  []prayer.Window        `json:"windows"`
}

type Status struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Completed bool   `json:"completed"`
}

type TodayView struct {
	Date     string   `json:"date"`
	Timezone string   `json:"timezone"`
	Prayers  []Status `json:"prayers"`
}

type Usecase struct {
	locations location.Repo
	timings   TimingsSource
	logs      prayerlog.Repo
	sender    notification.EmailSender
	policy    prayer.DayPolicy
	fallback  *location.Location
	clk       func() time.Time
	log       *zap.Logger
}

// NewUC wires the prayer endpoints. sender may be nil, in which case EmailTimings
// returns ErrMailDisabled. fallback is used when no location has been saved.
func NewUC(
	locations location.Repo,
	timings TimingsSource,
	logs prayerlog.Repo,
	sender notification.EmailSender,
	policy prayer.DayPolicy,
	fallback *location.Location,
	clk func() time.Time,
	log *zap.Logger,
) *Usecase {
	if policy == nil {
		policy = prayer.SameDay
	}
	if clk == nil {
		clk = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		locations: locations,
		timings:   timings,
		logs:      logs,
		sender:    sender,
		policy:    policy,
		fallback:  fallback,
		clk:       clk,
		log:       log.With(zap.String("component", "api.prayer")),
	}
}

func (u *Usecase) stored(ctx context.Context) (*location.Location, error) {
	l, err := u.locations.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if l.Set() {
		return l, nil
	}
	if u.fallback.Set() {
		return u.fallback, nil
	}
	return nil, nil
}

func (u *Usecase) Timings(ctx context.Context, q Query) (*TimingsView, error) {
	if (q.Lat == nil) != (q.Lng == nil) {
		return nil, fmt.Errorf("%w: lat and lng must be given together", ErrInvalidInput)
	}

	var l location.Location
	if q.Lat != nil {
		l = location.Location{Lat: *q.Lat, Lng: *q.Lng}
	} else {
		st, err := u.stored(ctx)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, location.ErrNotConfigured
		}
		l = *st
	}
	if q.Timezone != "" {
		l.Timezone = q.Timezone
	}

	zone, err := prayer.LoadZone(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, l.Timezone)
	}

	date := q.Date
	if date != "" {
		if _, err := time.Parse(prayer.DateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	} else if l.Timezone != "" {
		date = u.clk().In(zone).Format(prayer.DateLayout)
	}

	ts, err := u.timings.Fetch(ctx, l.Lat, l.Lng, date)
	if err != nil {
		return nil, err
	}
	if l.Timezone == "" {
		l.Timezone = ts.Timezone
		if zone, err = prayer.LoadZone(ts.Timezone); err != nil {
			u.log.Warn("provider timezone", zap.String("tz", ts.Timezone), zap.Error(err))
			zone = time.UTC
		}
	}
	ts.Timezone = l.Timezone

	ws, err := prayer.DeriveWindows(ts, zone)
	if err != nil {
		u.log.Warn("malformed timings", zap.String("date", ts.Date), zap.Error(err))
	}
	return &TimingsView{Date: ts.Date, Timezone: ts.Timezone, Timings: ts.Timings, Windows: ws}, nil
}

func (u *Usecase) EmailTimings(ctx context.Context) error {
	if u.sender == nil {
		return ErrMailDisabled
	}
	v, err := u.Timings(ctx, Query{})
	if err != nil {
		return err
	}
	if err := u.sender.Send(ctx, timingsMessage(v)); err != nil {
		return fmt.Errorf("send timings: %w", err)
	}
	return nil
}

func timingsMessage(v *TimingsView) notification.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Prayer timings for %s:\n", v.Date)
	for _, n := range prayer.Order {
		clock := prayer.TrimClock(v.Timings[n])
		if clock == "" {
			clock = "--"
		}
		fmt.Fprintf(&b, "%s: %s\n", n, clock)
	}
	return notification.Message{Subject: "Today's prayer timings", Text: b.String()}
}

// Today lists the five prayers for the current prayer-day. Times are best effort:
// a missing location or provider failure leaves them empty.
func (u *Usecase) Today(ctx context.Context) (*TodayView, error) {
	return u.Day(ctx, "")
}

// Day is Today for an explicit date; an empty date means the current prayer-day.
func (u *Usecase) Day(ctx context.Context, date string) (*TodayView, error) {
	l, zone, tz, err := u.where(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = u.policy(u.clk(), zone)
	} else if err := validDate(date); err != nil {
		return nil, err
	}

	entries, err := u.logs.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list prayer log: %w", err)
	}

	var clocks map[prayer.Name]string
	if l != nil {
		if v, err := u.Timings(ctx, Query{Date: date}); err != nil {
			u.log.Warn("day timings", zap.String("date", date), zap.Error(err))
		} else {
			clocks, tz = v.Timings, v.Timezone
		}
	}
	return &TodayView{Date: date, Timezone: tz, Prayers: statuses(entries, clocks)}, nil
}

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 366
)

type DayStatus struct {
	Date    string   `json:"date"`
	Prayers []Status `json:"prayers"`
}

// History returns the last days prayer-days, oldest first, ending with the current
// one. Times are not included; only completion is.
func (u *Usecase) History(ctx context.Context, days int) ([]DayStatus, error) {
	if days < 1 || days > MaxHistoryDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, MaxHistoryDays)
	}
	_, zone, _, err := u.where(ctx)
	if err != nil {
		return nil, err
	}

	end, err := time.Parse(prayer.DateLayout, u.policy(u.clk(), zone))
	if err != nil {
		return nil, fmt.Errorf("prayer day: %w", err)
	}
	start := end.AddDate(0, 0, -(days - 1))

	entries, err := u.logs.ListRange(ctx, start.Format(prayer.DateLayout), end.Format(prayer.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list prayer log: %w", err)
	}
	byDate := make(map[string][]*prayerlog.Entry, days)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	out := make([]DayStatus, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(prayer.DateLayout)
		out = append(out, DayStatus{Date: date, Prayers: statuses(byDate[date], nil)})
	}
	return out, nil
}

// where resolves the stored location and the zone prayer-days are counted in.
func (u *Usecase) where(ctx context.Context) (*location.Location, *time.Location, string, error) {
	l, err := u.stored(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	tz := ""
	if l != nil {
		tz = l.Timezone
	}
	zone, err := prayer.LoadZone(tz)
	if err != nil {
		u.log.Warn("stored timezone", zap.String("tz", tz), zap.Error(err))
		return l, time.UTC, "", nil
	}
	return l, zone, tz, nil
}

func statuses(entries []*prayerlog.Entry, clocks map[prayer.Name]string) []Status {
	done := make(map[string]bool, len(entries))
	for _, e := range entries {
		done[e.PrayerID] = e.Completed
	}
	out := make([]Status, 0, len(prayer.Order))
	for _, n := range prayer.Order {
		out = append(out, Status{
			ID:        n.ID(),
			Name:      string(n),
			Time:      prayer.TrimClock(clocks[n]),
			Completed: done[n.ID()],
		})
	}
	return out
}

func validDate(date string) error {
	if _, err := time.Parse(prayer.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// Complete records completion for prayer id. An empty date means the current prayer-day.
func (u *Usecase) Complete(ctx context.Context, id string, completed bool, date string) (*prayerlog.Entry, error) {
	n, ok := prayer.ParseName(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrayer, id)
	}

	if date == "" {
		_, zone, _, err := u.where(ctx)
		if err != nil {
			return nil, err
		}
		date = u.policy(u.clk(), zone)
	} else if err := validDate(date); err != nil {
		return nil, err
	}

	e := &prayerlog.Entry{PrayerID: n.ID(), Date: date, Completed: completed}
	if err := u.logs.Upsert(ctx, e); err != nil {
		return nil, fmt.Errorf("save prayer log: %w", err)
	}
	return e, nil
}
