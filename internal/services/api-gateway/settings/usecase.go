package settings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/prayer"
)

var ErrInvalidLocation = errors.New("invalid location")

type Usecase struct {
	repo location.Repo
	clk  func() time.Time
}

func NewUC(repo location.Repo, clk func() time.Time) *Usecase {
	if clk == nil {
		clk = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{repo: repo, clk: clk}
}

// Location returns nil when nothing has been saved yet.
func (u *Usecase) Location(ctx context.Context) (*location.Location, error) {
	return u.repo.Get(ctx)
}

func (u *Usecase) SetLocation(ctx context.Context, lat, lng float64, timezone string) (*location.Location, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidLocation)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidLocation)
	}
	if timezone != "" {
		if _, err := prayer.LoadZone(timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidLocation, timezone)
		}
	}

	l := &location.Location{Lat: lat, Lng: lng, Timezone: timezone, UpdatedAt: u.clk()}
	if err := u.repo.Upsert(ctx, l); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	return l, nil
}
