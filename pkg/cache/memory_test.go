package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryClock(clock.now)}, opts...)...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clock
}

type payload struct {
	Team  int64   `json:"team"`
	Value float64 `json:"value"`
}

func TestMemoryCacheRoundTripsStructs(t *testing.T) {
	mc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, Key("rating", "v1", 7), payload{Team: 7, Value: 1523.5}, time.Minute))

	got, err := GetTyped[payload](ctx, mc, "rating:v1:7")
	require.NoError(t, err)
	assert.Equal(t, payload{Team: 7, Value: 1523.5}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "hello", 0))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.advance(time.Minute)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc, clock := newTestCache(t, WithMemoryMaxSize(2))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	clock.advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	clock.advance(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCacheLockOwnership(t *testing.T) {
	mc, clock := newTestCache(t)
	ctx := context.Background()

	token, ok, err := mc.TryLock(ctx, "team:v1:1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = mc.TryLock(ctx, "team:v1:1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, mc.Unlock(ctx, "team:v1:1", "someone-else"), ErrNotOwner)
	require.NoError(t, mc.Unlock(ctx, "team:v1:1", token))

	_, ok, err = mc.TryLock(ctx, "team:v1:1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// an expired lock can be taken over
	clock.advance(31 * time.Second)
	_, ok, err = mc.TryLock(ctx, "team:v1:1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ratings:v2:42", Key("ratings", "v2", int64(42)))
}
