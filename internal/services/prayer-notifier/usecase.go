package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultTolerance = 2 * time.Minute

type LocationSource interface {
	Get(ctx context.Context) (*location.Location, error)
}

type TimingsSource interface {
	Fetch(ctx context.Context, lat, lng float64, date string) (prayer.TimingSet, error)
}

type CompletionReader interface {
	IsCompleted(ctx context.Context, prayerID, date string) (bool, error)
}

type TickResult struct {
	Windows    int
	Due        int
	Sent       int
	Deduped    int
	Suppressed int
	Errors     int
	NoLocation bool
}

type Usecase struct {
	Locations   LocationSource
	Timings     TimingsSource
	Completions CompletionReader
	Gate        *Gate
	Sender      notification.EmailSender
	Clock       notification.Clock
	DayPolicy   prayer.DayPolicy
	Tolerance   time.Duration
	Log         *zap.Logger

	pick pickFunc
}

func NewUC(
	locations LocationSource,
	timings TimingsSource,
	completions CompletionReader,
	gate *Gate,
	sender notification.EmailSender,
	clock notification.Clock,
	dayPolicy prayer.DayPolicy,
	tolerance time.Duration,
	log *zap.Logger,
) *Usecase {
	if clock == nil {
		clock = notification.SystemClock{}
	}
	if dayPolicy == nil {
		dayPolicy = prayer.SameDay
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		Locations:   locations,
		Timings:     timings,
		Completions: completions,
		Gate:        gate,
		Sender:      sender,
		Clock:       clock,
		DayPolicy:   dayPolicy,
		Tolerance:   tolerance,
		Log:         log.With(zap.String("component", "notifier.uc")),
		pick:        randomPick,
	}
}

type reminder struct {
	typ notification.Type
	at  time.Time
}

// Tick evaluates today's windows against the current instant and sends whatever is
// due. Failures for one reminder are logged and counted; only failures that stop the
// whole evaluation (location or timings lookup) are returned.
func (u *Usecase) Tick(ctx context.Context) (TickResult, error) {
	var res TickResult

	tr := otel.Tracer("notifier.uc")
	ctx, span := tr.Start(ctx, "notifier.tick")
	defer span.End()

	now := u.Clock.Now()

	loc, err := u.Locations.Get(ctx)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("load location: %w", err)
	}
	if !loc.Set() {
		res.NoLocation = true
		return res, nil
	}

	zone := time.UTC
	if loc.Timezone != "" {
		z, err := prayer.LoadZone(loc.Timezone)
		if err != nil {
			u.Log.Warn("stored timezone unusable, using UTC", zap.String("timezone", loc.Timezone), zap.Error(err))
		} else {
			zone = z
		}
	}

	date := now.In(zone).Format(prayer.DateLayout)
	ts, err := u.Timings.Fetch(ctx, loc.Lat, loc.Lng, date)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("fetch timings for %s: %w", date, err)
	}

	if loc.Timezone != "" {
		ts.Timezone = loc.Timezone
	} else if ts.Timezone != "" {
		// No stored zone: the provider's zone decides which local day it is.
		if pz, err := prayer.LoadZone(ts.Timezone); err == nil {
			zone = pz
			if local := now.In(pz).Format(prayer.DateLayout); local != date {
				date = local
				reported := ts.Timezone
				if ts, err = u.Timings.Fetch(ctx, loc.Lat, loc.Lng, date); err != nil {
					span.RecordError(err)
					return res, fmt.Errorf("fetch timings for %s: %w", date, err)
				}
				if ts.Timezone == "" {
					ts.Timezone = reported
				}
			}
		} else {
			u.Log.Warn("provider timezone unusable, using UTC", zap.String("timezone", ts.Timezone), zap.Error(err))
		}
	}
	if ts.Date == "" {
		ts.Date = date
	}

	windows, err := prayer.DeriveWindows(ts, zone)
	if err != nil {
		res.Errors++
		u.Log.Warn("malformed prayer times skipped", zap.String("date", ts.Date), zap.Error(err))
	}
	res.Windows = len(windows)
	prayerDay := u.DayPolicy(now, zone)

	span.SetAttributes(
		attribute.String("prayer.date", ts.Date),
		attribute.String("prayer.timezone", zone.String()),
		attribute.Int("prayer.windows", len(windows)),
	)

	for _, w := range windows {
		for _, r := range []reminder{
			{notification.TypePrayerStart, w.Start},
			{notification.TypePrayerHalf, w.Midpoint},
			{notification.TypePrayerEnd, w.EndWarning},
		} {
			if !withinTolerance(now, r.at, u.Tolerance) {
				continue
			}
			res.Due++
			u.fire(ctx, tr, &res, w, r, ts.Date, prayerDay, now, zone)
		}
	}

	span.SetAttributes(
		attribute.Int("notify.sent", res.Sent),
		attribute.Int("notify.errors", res.Errors),
	)
	return res, nil
}

func (u *Usecase) fire(
	ctx context.Context,
	tr trace.Tracer,
	res *TickResult,
	w prayer.Window,
	r reminder,
	date, prayerDay string,
	now time.Time,
	zone *time.Location,
) {
	ctx, span := tr.Start(ctx, "notifier.reminder", trace.WithAttributes(
		attribute.String("prayer", string(w.Prayer)),
		attribute.String("reminder.type", string(r.typ)),
	))
	defer span.End()

	log := u.Log.With(zap.String("prayer", string(w.Prayer)), zap.String("type", string(r.typ)))

	// A completed prayer needs no nudging; the start notice always goes out.
	if r.typ != notification.TypePrayerStart {
		done, err := u.Completions.IsCompleted(ctx, w.Prayer.ID(), prayerDay)
		if err != nil {
			res.Errors++
			span.RecordError(err)
			log.Warn("completion lookup failed, skipping reminder", zap.String("prayer_day", prayerDay), zap.Error(err))
			return
		}
		if done {
			res.Suppressed++
			return
		}
	}

	key := notification.Key{Type: r.typ, Date: date, RefID: string(w.Prayer)}
	if !u.Gate.ShouldSend(ctx, key) {
		res.Deduped++
		return
	}

	var msg notification.Message
	switch r.typ {
	case notification.TypePrayerStart:
		msg = startMessage(w, zone)
	case notification.TypePrayerHalf:
		msg = halfMessage(w, u.pick)
	default:
		msg = endMessage(w, zone)
	}

	if err := u.Sender.Send(ctx, msg); err != nil {
		res.Errors++
		span.RecordError(err)
		log.Warn("send failed, will retry next tick", zap.Error(err))
		return
	}
	u.Gate.MarkSent(ctx, key, now)
	res.Sent++
	log.Info("reminder sent", zap.String("key", key.String()))
}

func withinTolerance(now, at time.Time, tol time.Duration) bool {
	d := now.Sub(at)
	if d < 0 {
		d = -d
	}
	return d <= tol
}
