package location

import (
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("location not configured")

type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timezone  string    `json:"timezone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Set reports whether coordinates were provided; 0,0 counts as unset.
func (l *Location) Set() bool { return l != nil && (l.Lat != 0 || l.Lng != 0) }
