package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quill/internal/shared/logging"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestLRUExpiresEntries(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	kv, err := NewLRU(4)
	require.NoError(t, err)
	kv.WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Hour))
	value, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)

	clock.now = clock.now.Add(time.Hour)
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLRUEvictsOldest(t *testing.T) {
	t.Parallel()

	kv, err := NewLRU(2)
	require.NoError(t, err)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, kv.Set(ctx, key, key, 0))
	}
	_, ok, _ := kv.Get(ctx, "a")
	require.False(t, ok)
	value, ok, _ := kv.Get(ctx, "c")
	require.True(t, ok)
	require.Equal(t, "c", value)
}

func TestBigCacheRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	kv, err := NewBigCache(1, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	kv.now = clock.Now
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(ctx, "markdown:a:a-index", "# Hello", time.Minute))
	require.NoError(t, kv.Set(ctx, "forever", "", 0))

	value, ok, err := kv.Get(ctx, "markdown:a:a-index")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "# Hello", value)

	clock.now = clock.now.Add(2 * time.Minute)
	_, ok, err = kv.Get(ctx, "markdown:a:a-index")
	require.NoError(t, err)
	require.False(t, ok)

	value, ok, err = kv.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, value)
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	kv, err := New(Config{}, nil)
	require.NoError(t, err)
	require.IsType(t, &LRU{}, kv)

	kv, err = New(Config{Backend: "BigCache", Size: 1 << 20, MaxMiB: 1}, nil)
	require.NoError(t, err)
	require.IsType(t, &BigCache{}, kv)
	require.Equal(t, 1, kv.(*BigCache).maxMiB)
	require.NoError(t, kv.Close())

	_, err = New(Config{Backend: BackendRedis}, nil)
	require.Error(t, err)

	_, err = New(Config{Backend: "memcached"}, nil)
	require.Error(t, err)
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "127.0.0.1:1")
}
