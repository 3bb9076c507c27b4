//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/NordCoder/Reminderus/internal/prayer"
	redisrepo "github.com/NordCoder/Reminderus/internal/repository/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingsCache_RoundTripAndExpiry(t *testing.T) {
	cfg := LoadCfg()
	WaitTCP(t, "redis", cfg.RedisAddr, 10*time.Second)

	rdb := redisrepo.NewClient(redisrepo.Config{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	cache := redisrepo.NewTimingsCache(rdb)
	ctx := context.Background()

	key := fmt.Sprintf("it:timings:%d", time.Now().UnixNano())
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := prayer.TimingSet{
		Date:     "2024-06-01",
		Timezone: "Asia/Karachi",
		Timings:  map[prayer.Name]string{prayer.Fajr: "03:41", prayer.Isha: "20:51"},
	}
	require.NoError(t, cache.Set(ctx, key, ts, time.Second))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ts, got)

	require.Eventually(t, func() bool {
		_, ok, err := cache.Get(ctx, key)
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
