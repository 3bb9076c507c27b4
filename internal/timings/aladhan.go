package timings

import "github.com/NordCoder/Reminderus/internal/prayer"

const providerDateLayout = "02-01-2006"

type envelope struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Date    struct {
			Gregorian struct {
				Date string `json:"date"`
			} `json:"gregorian"`
		} `json:"date"`
		Meta struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// toTimingSet keeps only the five daily prayers; the provider also reports
// sunrise, sunset, imsak and midnight.
func (e *envelope) toTimingSet() prayer.TimingSet {
	ts := prayer.TimingSet{
		Timezone: e.Data.Meta.Timezone,
		Timings:  make(map[prayer.Name]string, len(prayer.Order)),
	}
	for _, n := range prayer.Order {
		if v, ok := e.Data.Timings[string(n)]; ok {
			ts.Timings[n] = v
		}
	}
	return ts
}
