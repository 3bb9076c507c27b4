package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Reminderus/internal/prayer"
	"github.com/NordCoder/Reminderus/internal/timings"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
}

func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

var _ timings.Cache = (*TimingsCache)(nil)

// TimingsCache keeps provider answers as JSON strings with a TTL.
type TimingsCache struct {
	rdb redis.Cmdable
}

func NewTimingsCache(rdb redis.Cmdable) *TimingsCache { return &TimingsCache{rdb: rdb} }

func (c *TimingsCache) Get(ctx context.Context, key string) (prayer.TimingSet, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return prayer.TimingSet{}, false, nil
	}
	if err != nil {
		return prayer.TimingSet{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var ts prayer.TimingSet
	if err := json.Unmarshal(raw, &ts); err != nil {
		return prayer.TimingSet{}, false, fmt.Errorf("decode cached timings: %w", err)
	}
	return ts, true, nil
}

func (c *TimingsCache) Set(ctx context.Context, key string, ts prayer.TimingSet, ttl time.Duration) error {
	raw, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
