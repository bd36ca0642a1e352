package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/pkg/cache"
	applogger "TipsEngine/pkg/logger"
)

// CachedRatings serves rating reads from the cache and falls back to the
// wrapped repository. Writes go through and evict the touched keys. Rating
// updates read the wrapped repository directly under the team lock; only
// prediction reads go through here.
type CachedRatings struct {
	inner domrepo.RatingRepository
	c     cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

var (
	_ domrepo.RatingRepository  = (*CachedRatings)(nil)
	_ domrepo.RatingInvalidator = (*CachedRatings)(nil)
)

func NewCachedRatings(inner domrepo.RatingRepository, c cache.Service, ttl time.Duration) *CachedRatings {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRatings{inner: inner, c: c, ttl: ttl}
}

// SetLogger injects a structured logger.
func (r *CachedRatings) SetLogger(l *applogger.Logger) { r.l = l }

func ratingsGenKey(teamID int64, version string) string {
	return cache.Key("ratings-gen", version, teamID)
}

func ratingsKey(teamID int64, version, gen string) string {
	return cache.Key("ratings", version, teamID, gen)
}

// generation returns the current cache generation for a team, installing a
// fresh one when none is stored. A set cached under a generation was read
// from the wrapped repository after that generation was installed, and every
// write replaces the generation, so a read racing a write can only leave an
// entry nobody looks up again.
func (r *CachedRatings) generation(ctx context.Context, teamID int64, version string) (string, error) {
	key := ratingsGenKey(teamID, version)
	var gen string
	err := r.c.Get(ctx, key, &gen)
	if err == nil && gen != "" {
		return gen, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return "", err
	}
	return r.bump(ctx, teamID, version)
}

func (r *CachedRatings) bump(ctx context.Context, teamID int64, version string) (string, error) {
	gen := uuid.NewString()
	if err := r.c.Set(ctx, ratingsGenKey(teamID, version), gen, 2*r.ttl); err != nil {
		return "", err
	}
	return gen, nil
}

func (r *CachedRatings) GetRatings(ctx context.Context, teamID int64, version string, defaults models.RatingSet) (models.RatingSet, error) {
	gen, err := r.generation(ctx, teamID, version)
	if err != nil {
		if r.l != nil {
			r.l.Warn("rating cache generation read failed",
				applogger.Int64("team_id", teamID), applogger.Error(err))
		}
		return r.inner.GetRatings(ctx, teamID, version, defaults)
	}

	key := ratingsKey(teamID, version, gen)
	var set models.RatingSet
	err = r.c.Get(ctx, key, &set)
	if err == nil {
		return set, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && r.l != nil {
		r.l.Warn("rating cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	set, err = r.inner.GetRatings(ctx, teamID, version, defaults)
	if err != nil {
		return models.RatingSet{}, err
	}
	if err := r.c.Set(ctx, key, set, r.ttl); err != nil && r.l != nil {
		r.l.Warn("rating cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return set, nil
}

// SaveRatings writes through. A failed eviction is logged; the write itself
// has already committed.
func (r *CachedRatings) SaveRatings(ctx context.Context, sets ...models.RatingSet) error {
	if err := r.inner.SaveRatings(ctx, sets...); err != nil {
		return err
	}
	r.evict(ctx, sets)
	return nil
}

func (r *CachedRatings) SaveMatchRatings(ctx context.Context, matchID int64, version string, sets ...models.RatingSet) error {
	if err := r.inner.SaveMatchRatings(ctx, matchID, version, sets...); err != nil {
		return err
	}
	r.evict(ctx, sets)
	return nil
}

func (r *CachedRatings) MatchApplied(ctx context.Context, matchID int64, version string) (bool, error) {
	return r.inner.MatchApplied(ctx, matchID, version)
}

func (r *CachedRatings) CountRatings(ctx context.Context, version string) (int, error) {
	return r.inner.CountRatings(ctx, version)
}

func (r *CachedRatings) evict(ctx context.Context, sets []models.RatingSet) {
	if err := r.InvalidateRatings(ctx, sets...); err != nil && r.l != nil {
		r.l.Warn("rating cache evict failed", applogger.Int("sets", len(sets)), applogger.Error(err))
	}
}

// InvalidateRatings moves every touched team to a new generation. The
// first failure is returned after all sets were attempted.
func (r *CachedRatings) InvalidateRatings(ctx context.Context, sets ...models.RatingSet) error {
	var first error
	for _, s := range sets {
		if _, err := r.bump(ctx, s.TeamID, s.Version); err != nil && first == nil {
			first = fmt.Errorf("invalidate ratings team %d: %w", s.TeamID, err)
		}
	}
	return first
}
