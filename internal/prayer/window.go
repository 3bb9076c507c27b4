package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Name string

const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Order is the daily cycle; a prayer's window ends where the next one starts.
var Order = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

const (
	// LastPrayerSpan is the fixed length of a window with no following prayer.
	LastPrayerSpan = 90 * time.Minute
	// EndWarningLead is how long before a window's end the last reminder is due.
	EndWarningLead = 10 * time.Minute
)

// ID is the identifier used by the prayer log ("fajr", "dhuhr", ...).
func (n Name) ID() string { return strings.ToLower(string(n)) }

// ParseName accepts either a display name or a log id.
func ParseName(s string) (Name, bool) {
	for _, n := range Order {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, true
		}
	}
	return "", false
}

type TimingSet struct {
	Date     string          `json:"date"`
	Timezone string          `json:"timezone,omitempty"`
	Timings  map[Name]string `json:"timings"`
}

type Window struct {
	Prayer     Name      `json:"prayer"`
	Clock      string    `json:"clock"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Midpoint   time.Time `json:"midpoint"`
	EndWarning time.Time `json:"end_warning"`
}

// DeriveWindows builds a window for every prayer in Order that has a valid time.
// Prayers with no time produce nothing; prayers with a malformed time produce nothing
// and are reported through the returned error. If the following prayer has no usable
// time the window is closed after LastPrayerSpan.
func DeriveWindows(ts TimingSet, loc *time.Location) ([]Window, error) {
	out := make([]Window, 0, len(Order))
	var errs []error

	for i, name := range Order {
		raw := strings.TrimSpace(ts.Timings[name])
		if raw == "" {
			continue
		}
		start, err := ResolveClockTime(ts.Date, raw, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		end := start.Add(LastPrayerSpan)
		if i+1 < len(Order) {
			if next := strings.TrimSpace(ts.Timings[Order[i+1]]); next != "" {
				if nextStart, nextErr := ResolveClockTime(ts.Date, next, loc); nextErr == nil {
					end = nextStart
				}
			}
		}

		out = append(out, Window{
			Prayer:     name,
			Clock:      TrimClock(raw),
			Start:      start,
			End:        end,
			Midpoint:   start.Add(end.Sub(start) / 2),
			EndWarning: end.Add(-EndWarningLead),
		})
	}
	return out, errors.Join(errs...)
}
