package prayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ErrInvalidTime is returned when a date or clock string cannot be turned into an
// instant. Callers must check for it before using the resolved time.
var ErrInvalidTime = errors.New("invalid clock time")

// LoadZone resolves an IANA zone name. An empty name means UTC.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// ResolveClockTime returns the instant whose wall clock in loc reads clock ("HH:MM")
// on date ("YYYY-MM-DD"). It does not depend on the host's local zone.
//
// The instant is found by guessing the naive UTC time, rendering that guess in loc
// and shifting the guess back by the drift between the two.
func ResolveClockTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, mi, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	guess := time.Date(y, time.Month(mo), d, h, mi, 0, 0, time.UTC)
	// time.Date normalizes impossible days (Feb 30 -> Mar 2); refuse them.
	if guess.Year() != y || int(guess.Month()) != mo || guess.Day() != d {
		return time.Time{}, fmt.Errorf("%w: no such day %q", ErrInvalidTime, date)
	}

	wall := guess.In(loc)
	wallAsUTC := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, time.UTC)
	offset := wallAsUTC.Sub(guess)

	return guess.Add(-offset), nil
}

func parseDate(s string) (year, month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidTime, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidTime, s)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrInvalidTime, s)
	}
	return nums[0], nums[1], nums[2], nil
}

// parseClock accepts "HH:MM" with an optional trailing qualifier, e.g. "05:12 (BST)".
func parseClock(s string) (hour, minute int, err error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("%w: empty clock", ErrInvalidTime)
	}
	hh, mm, ok := strings.Cut(fields[0], ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: clock %q", ErrInvalidTime, s)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: clock %q", ErrInvalidTime, s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: clock %q", ErrInvalidTime, s)
	}
	return hour, minute, nil
}

// TrimClock drops any qualifier the provider appends to a clock string.
func TrimClock(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
