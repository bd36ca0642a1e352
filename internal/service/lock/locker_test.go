package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"TipsEngine/internal/domain/models"
	"TipsEngine/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) *CacheLocker {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewCacheLocker(mc, WithRetry(time.Millisecond))
}

func TestLockSerialisesHolders(t *testing.T) {
	cl := newLocker(t)
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := cl.Lock(ctx, "team:v1:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestLockTimesOut(t *testing.T) {
	cl := newLocker(t)

	unlock, err := cl.Lock(context.Background(), "match:9")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cl.Lock(ctx, "match:9")
	assert.ErrorIs(t, err, models.ErrLockNotAcquired)
}

func TestUnlockIsIdempotent(t *testing.T) {
	cl := newLocker(t)
	ctx := context.Background()

	unlock, err := cl.Lock(ctx, "k")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := cl.Lock(ctx, "k")
	require.NoError(t, err)
	again()
}

type countingUnlocks struct {
	cache.Service
	unlocks int32
}

func (c *countingUnlocks) Unlock(ctx context.Context, key, token string) error {
	atomic.AddInt32(&c.unlocks, 1)
	return c.Service.Unlock(ctx, key, token)
}

func TestConcurrentUnlockReleasesOnce(t *testing.T) {
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	c := &countingUnlocks{Service: mc}
	cl := NewCacheLocker(c, WithRetry(time.Millisecond))

	unlock, err := cl.Lock(context.Background(), "match:4")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&c.unlocks))
	again, err := cl.Lock(context.Background(), "match:4")
	require.NoError(t, err)
	again()
}

type recordingLocker struct {
	mu    sync.Mutex
	order []string
	fail  string
	held  map[string]bool
}

func (r *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == r.fail {
		return nil, models.ErrLockNotAcquired
	}
	r.order = append(r.order, key)
	r.held[key] = true
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.held, key)
	}, nil
}

func TestLockAllSortsAndDeduplicates(t *testing.T) {
	r := &recordingLocker{held: map[string]bool{}}

	unlock, err := LockAll(context.Background(), r, "team:v1:20", "team:v1:10", "team:v1:20")
	require.NoError(t, err)
	assert.Equal(t, []string{"team:v1:10", "team:v1:20"}, r.order)
	assert.Len(t, r.held, 2)

	unlock()
	assert.Empty(t, r.held)
}

func TestLockAllReleasesOnFailure(t *testing.T) {
	r := &recordingLocker{held: map[string]bool{}, fail: "b"}

	_, err := LockAll(context.Background(), r, "c", "a", "b")
	assert.ErrorIs(t, err, models.ErrLockNotAcquired)
	assert.Equal(t, []string{"a"}, r.order)
	assert.Empty(t, r.held)
}
