package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/service/lock"
	"TipsEngine/internal/services/features"
	"TipsEngine/pkg/cache"
	"TipsEngine/pkg/config"

	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2024, 3, 16, 15, 0, 0, 0, time.UTC)

func goals(n int) *int { return &n }

func xg(v float64) *float64 { return &v }

type memMatches struct {
	matches map[int64]models.Match
	odds    map[int64]*models.OddsQuote
	aux     map[int64]models.XStatsData
}

func newMemMatches() *memMatches {
	return &memMatches{
		matches: map[int64]models.Match{},
		odds:    map[int64]*models.OddsQuote{},
		aux:     map[int64]models.XStatsData{},
	}
}

func (m *memMatches) add(id, home, away int64, at time.Time, score ...int) {
	match := models.Match{ID: id, HomeTeamID: home, AwayTeamID: away, KickoffAt: at, Status: models.MatchScheduled}
	if len(score) == 2 {
		match.HomeGoals, match.AwayGoals = goals(score[0]), goals(score[1])
		match.Status = models.MatchFinished
	}
	m.matches[id] = match
}

func (m *memMatches) GetMatch(_ context.Context, id int64) (*models.Match, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, models.ErrMatchNotFound
	}
	return &match, nil
}

func (m *memMatches) finishedOf(teamID int64, before time.Time) []models.Match {
	var out []models.Match
	for _, match := range m.matches {
		if !match.HasFinalScore() || !match.KickoffAt.Before(before) {
			continue
		}
		if match.HomeTeamID == teamID || match.AwayTeamID == teamID {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.After(out[j].KickoffAt) })
	return out
}

func (m *memMatches) RecentMatches(_ context.Context, teamID int64, before time.Time, limit int) ([]models.TeamMatch, error) {
	var out []models.TeamMatch
	for _, match := range m.finishedOf(teamID, before) {
		var aux *models.XStatsData
		if x, ok := m.aux[match.ID]; ok {
			aux = &x
		}
		if tm, ok := features.Perspective(match, teamID, aux); ok {
			out = append(out, tm)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memMatches) PreviousMatchAt(_ context.Context, teamID int64, before time.Time) (*time.Time, error) {
	prev := m.finishedOf(teamID, before)
	if len(prev) == 0 {
		return nil, nil
	}
	at := prev[0].KickoffAt
	return &at, nil
}

func (m *memMatches) CurrentOdds(_ context.Context, id int64) (*models.OddsQuote, error) {
	return m.odds[id], nil
}

func (m *memMatches) AuxData(_ context.Context, id int64, _ models.AuxDataType) (models.AuxData, error) {
	if x, ok := m.aux[id]; ok {
		return x, nil
	}
	return nil, nil
}

func (m *memMatches) FinishedMatches(_ context.Context, limit int) ([]models.Match, error) {
	var out []models.Match
	for _, match := range m.matches {
		if match.HasFinalScore() {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memRatings struct {
	mu      sync.Mutex
	sets    map[string]models.RatingSet
	applied map[string]bool
}

func newMemRatings() *memRatings {
	return &memRatings{sets: map[string]models.RatingSet{}, applied: map[string]bool{}}
}

func (r *memRatings) GetRatings(_ context.Context, teamID int64, version string, defaults models.RatingSet) (models.RatingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := TeamLockKey(version, teamID)
	if s, ok := r.sets[key]; ok {
		return s, nil
	}
	r.sets[key] = defaults
	return defaults, nil
}

func (r *memRatings) SaveRatings(_ context.Context, sets ...models.RatingSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(sets)
	return nil
}

func (r *memRatings) save(sets []models.RatingSet) {
	for _, s := range sets {
		r.sets[TeamLockKey(s.Version, s.TeamID)] = s
	}
}

func (r *memRatings) SaveMatchRatings(_ context.Context, matchID int64, version string, sets ...models.RatingSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := MatchLockKey(matchID) + ":" + version
	if r.applied[key] {
		return models.ErrAlreadyApplied
	}
	r.applied[key] = true
	r.save(sets)
	return nil
}

func (r *memRatings) MatchApplied(_ context.Context, matchID int64, version string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied[MatchLockKey(matchID)+":"+version], nil
}

func (r *memRatings) CountRatings(_ context.Context, version string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sets {
		if s.Version != version {
			continue
		}
		for _, row := range s.Rows() {
			if row.MatchesPlayed > 0 {
				n++
			}
		}
	}
	return n, nil
}

type memStatistics struct {
	mu   sync.Mutex
	rows map[int64]models.MatchStatistics
}

func (s *memStatistics) UpsertStatistics(_ context.Context, st *models.MatchStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[st.MatchID] = *st
	return nil
}

func (s *memStatistics) GetStatistics(_ context.Context, id int64) (*models.MatchStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[id]
	if !ok {
		return nil, models.ErrStatsNotFound
	}
	return &st, nil
}

type recorder struct {
	mu           sync.Mutex
	changes      []models.RatingChange
	calculations int
	statsEvents  []int64
	ratingEvents []int64
	invalidated  int

	invalidateErr error
}

func (r *recorder) RecordRatingChanges(_ context.Context, changes []models.RatingChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes...)
	return nil
}

func (r *recorder) RecordCalculation(context.Context, *models.MatchStatistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calculations++
	return nil
}

func (r *recorder) PublishStatistics(_ context.Context, st *models.MatchStatistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsEvents = append(r.statsEvents, st.MatchID)
	return nil
}

func (r *recorder) PublishRatingsUpdated(_ context.Context, matchID int64, _ ...models.RatingSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratingEvents = append(r.ratingEvents, matchID)
	return nil
}

func (r *recorder) InvalidateRatings(context.Context, ...models.RatingSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated++
	return r.invalidateErr
}

func (r *recorder) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordCalculation(string, models.DataQuality) {}
func (nopMetrics) RecordRatingUpdate(string)                    {}
func (nopMetrics) RecordValueBet(models.Outcome)                {}
func (nopMetrics) RecordError(string)                           {}
func (nopMetrics) RecordLatency(string, float64)                {}

type errorMetrics struct {
	nopMetrics
	mu     sync.Mutex
	errors []string
}

func (m *errorMetrics) RecordError(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, op)
}

type fixture struct {
	matches *memMatches
	ratings *memRatings
	stats   *memStatistics
	rec     *recorder
	engine  *StatisticsEngine
	service *RatingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := config.NewModelRegistry(config.EngineConfig{
		DefaultVersion: "v1",
		Models:         []config.ModelConfig{config.DefaultModelConfig("v1"), config.DefaultModelConfig("v2")},
	})
	require.NoError(t, err)

	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	locker := lock.NewCacheLocker(mc, lock.WithRetry(time.Millisecond))

	f := &fixture{
		matches: newMemMatches(),
		ratings: newMemRatings(),
		stats:   &memStatistics{rows: map[int64]models.MatchStatistics{}},
		rec:     &recorder{},
	}
	stores := Stores{
		Matches:    f.matches,
		Ratings:    f.ratings,
		Statistics: f.stats,
		History:    f.rec,
		Events:     f.rec,
	}
	now := func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 123, time.UTC) }
	f.engine = NewStatisticsEngine(stores, DefaultCalculators(), registry, locker, nopMetrics{},
		WithEngineClock(now), WithBatchWorkers(2))
	f.service = NewRatingService(stores, DefaultCalculators(), registry, locker, nopMetrics{},
		WithRatingCache(f.rec))
	return f
}
