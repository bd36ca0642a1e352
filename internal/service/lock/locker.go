package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/pkg/cache"
	applogger "TipsEngine/pkg/logger"
)

// CacheLocker implements the domain Locker on top of a cache backend. With
// the memory cache it serialises goroutines of one process; with Redis it
// serialises every engine instance sharing that Redis.
type CacheLocker struct {
	c     cache.Service
	ttl   time.Duration
	retry time.Duration
	l     *applogger.Logger
}

var _ domrepo.Locker = (*CacheLocker)(nil)

type Option func(*CacheLocker)

// WithTTL bounds how long a crashed holder can keep a key.
func WithTTL(ttl time.Duration) Option {
	return func(cl *CacheLocker) { cl.ttl = ttl }
}

// WithRetry sets the polling interval while waiting for a key.
func WithRetry(d time.Duration) Option {
	return func(cl *CacheLocker) { cl.retry = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(cl *CacheLocker) { cl.l = l }
}

func NewCacheLocker(c cache.Service, opts ...Option) *CacheLocker {
	cl := &CacheLocker{c: c, ttl: 30 * time.Second, retry: 25 * time.Millisecond}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Lock polls until key is acquired or ctx is done. The returned func
// releases the key and is safe to call more than once, also concurrently.
func (cl *CacheLocker) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(cl.retry)
	defer ticker.Stop()

	for {
		token, ok, err := cl.c.TryLock(ctx, key, cl.ttl)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return cl.release(key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %v", key, models.ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (cl *CacheLocker) release(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled; the key must still go
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cl.c.Unlock(ctx, key, token); err != nil && cl.l != nil {
				cl.l.Warn("release lock failed",
					applogger.String("key", key),
					applogger.Error(err))
			}
		})
	}
}

// LockAll acquires every distinct key in sorted order so two callers
// locking overlapping sets cannot deadlock. On failure nothing stays held.
func LockAll(ctx context.Context, locker domrepo.Locker, keys ...string) (func(), error) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	unlockAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, k := range sorted {
		unlock, err := locker.Lock(ctx, k)
		if err != nil {
			unlockAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return unlockAll, nil
}
