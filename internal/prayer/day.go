package prayer

import (
	"fmt"
	"time"
)

// DayPolicy maps an instant to the calendar day a prayer's completion is logged
// under. The product rule is not settled, so it is swappable through configuration.
type DayPolicy func(t time.Time, loc *time.Location) string

// SameDay attributes an instant to its own calendar date in loc.
func SameDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// NoonRollback attributes instants before 12:00 local to the previous day.
func NoonRollback(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if local.Hour() < 12 {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(DateLayout)
}

const (
	PolicySameDay      = "same_day"
	PolicyNoonRollback = "noon_rollback"
)

func PolicyByName(name string) (DayPolicy, error) {
	switch name {
	case "", PolicySameDay:
		return SameDay, nil
	case PolicyNoonRollback:
		return NoonRollback, nil
	default:
		return nil, fmt.Errorf("unknown prayer day policy %q", name)
	}
}
