package timings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/Reminderus/internal/obs/retry"
	"github.com/NordCoder/Reminderus/internal/prayer"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUpstream is returned when the provider answers with a non-2xx status or an
// unusable body.
var ErrUpstream = errors.New("timings provider error")

// errTransient marks failures worth another attempt: transport errors, 429 and 5xx.
var errTransient = errors.New("transient")

// Cache stores provider answers. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (prayer.TimingSet, bool, error)
	Set(ctx context.Context, key string, ts prayer.TimingSet, ttl time.Duration) error
}

type Config struct {
	BaseURL    string
	Method     int
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	CacheTTL   time.Duration
	// Attempts bounds requests per Fetch; RetryBase is the first backoff step.
	Attempts  int
	RetryBase time.Duration
	// RetryMetrics is optional.
	RetryMetrics *retry.Metrics
}

type Client struct {
	http    *http.Client
	base    string
	method  int
	limiter *rate.Limiter
	cache   Cache
	ttl     time.Duration
	retry   retry.Policy
	log     *zap.Logger
}

func NewClient(cfg Config, cache Cache, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	log = log.With(zap.String("component", "timings.client"))
	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		method:  cfg.Method,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cache:   cache,
		ttl:     cfg.CacheTTL,
		retry: retry.Policy{
			Name:      "timings_fetch",
			Attempts:  cfg.Attempts,
			Backoff:   retry.ExpoJitter{Base: cfg.RetryBase, Max: 5 * time.Second, Jitter: 0.2},
			Retryable: func(err error) bool { return errors.Is(err, errTransient) },
			OnAttempt: func(i int, err error) {
				log.Warn("timings fetch attempt failed", zap.Int("attempt", i+1), zap.Error(err))
			},
			Metrics: cfg.RetryMetrics,
		},
		log: log,
	}
}

// Fetch returns the timings for date (YYYY-MM-DD) at the given coordinates.
// An empty date asks the provider for its current day.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, date string) (prayer.TimingSet, error) {
	key := c.cacheKey(lat, lng, date)
	if c.cache != nil && date != "" {
		ts, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("timings cache get", zap.String("key", key), zap.Error(err))
		} else if ok {
			return ts, nil
		}
	}

	var ts prayer.TimingSet
	err := retry.Do(ctx, func() error {
		var ferr error
		ts, ferr = c.fetch(ctx, lat, lng, date)
		return ferr
	}, c.retry)
	if err != nil {
		return prayer.TimingSet{}, err
	}

	if c.cache != nil && date != "" && c.ttl > 0 {
		if err := c.cache.Set(ctx, key, ts, c.ttl); err != nil {
			c.log.Warn("timings cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return ts, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64, date string) (prayer.TimingSet, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("method", strconv.Itoa(c.method))
	if date != "" {
		d, err := time.Parse(prayer.DateLayout, date)
		if err != nil {
			return prayer.TimingSet{}, fmt.Errorf("timings date %q: %w", date, prayer.ErrInvalidTime)
		}
		q.Set("date", d.Format(providerDateLayout))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return prayer.TimingSet{}, fmt.Errorf("timings rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/timings?"+q.Encode(), nil)
	if err != nil {
		return prayer.TimingSet{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return prayer.TimingSet{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return prayer.TimingSet{}, fmt.Errorf("%w: %w: %v", ErrUpstream, errTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return prayer.TimingSet{}, fmt.Errorf("%w: %w: status %d", ErrUpstream, errTransient, resp.StatusCode)
		}
		return prayer.TimingSet{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return prayer.TimingSet{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	ts := env.toTimingSet()
	ts.Date = date
	if ts.Date == "" {
		if d, err := time.Parse(providerDateLayout, env.Data.Date.Gregorian.Date); err == nil {
			ts.Date = d.Format(prayer.DateLayout)
		}
	}
	return ts, nil
}

func (c *Client) cacheKey(lat, lng float64, date string) string {
	return fmt.Sprintf("timings:%d:%.4f:%.4f:%s", c.method, lat, lng, date)
}
