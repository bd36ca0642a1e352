package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TipsEngine/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRatingsWithoutFinalScoreIsNoop(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff)

	upd, err := f.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Nil(t, upd)
	assert.Empty(t, f.ratings.sets)
	assert.Empty(t, f.rec.ratingEvents)
}

func TestUpdateRatingsMissingMatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateRatingsForCompletedMatch(context.Background(), 404, "")
	assert.ErrorIs(t, err, models.ErrMatchNotFound)
}

func TestUpdateRatingsAppliesResult(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 3, 0)

	upd, err := f.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "v1")
	require.NoError(t, err)
	require.NotNil(t, upd)

	assert.Greater(t, upd.Home.Elo.Value, 1500.0)
	assert.Less(t, upd.Away.Elo.Value, 1500.0)
	assert.Equal(t, 1, upd.Home.MatchesPlayed())
	require.NotNil(t, upd.Home.Elo.LastMatchAt)
	assert.Equal(t, kickoff, *upd.Home.Elo.LastMatchAt)

	stored, err := f.service.GetRatings(context.Background(), 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, upd.Home.Elo.Value, stored.Elo.Value)

	assert.Len(t, f.rec.changes, 6)
	assert.Equal(t, []int64{1}, f.rec.ratingEvents)
	assert.Equal(t, 1, f.rec.invalidated)

	other, err := f.service.GetRatings(context.Background(), 1, "v2")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, other.Elo.Value)
}

func TestUpdateRatingsPrefersXG(t *testing.T) {
	withXG := newFixture(t)
	withXG.matches.add(1, 1, 2, kickoff, 1, 0)
	withXG.matches.aux[1] = models.XStatsData{
		Home: models.XStatsTeam{XG: xg(2.7)},
		Away: models.XStatsTeam{XG: xg(0.4)},
	}
	goalsOnly := newFixture(t)
	goalsOnly.matches.add(1, 1, 2, kickoff, 1, 0)

	a, err := withXG.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "")
	require.NoError(t, err)
	b, err := goalsOnly.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, a.Home.Elo.Value, b.Home.Elo.Value)
	assert.Greater(t, a.Home.Attack.Value, b.Home.Attack.Value)
}

func TestRebuildRatingsReplaysInOrder(t *testing.T) {
	f := newFixture(t)
	f.matches.add(2, 2, 1, kickoff, 0, 2)
	f.matches.add(1, 1, 2, kickoff.AddDate(0, 0, -7), 1, 1)
	f.matches.add(3, 1, 3, kickoff.AddDate(0, 0, 7))

	report, err := f.service.RebuildRatings(context.Background(), "v1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, "v1", report.Version)

	set, err := f.service.GetRatings(context.Background(), 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, set.MatchesPlayed())
	assert.Equal(t, kickoff, *set.Elo.LastMatchAt)
	assert.Equal(t, []int64{1, 2}, f.rec.ratingEvents)
}

func TestRebuildRatingsRefusesPopulatedVersion(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 1, 0)
	_, err := f.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "v1")
	require.NoError(t, err)

	_, err = f.service.RebuildRatings(context.Background(), "v1", 0)
	assert.ErrorIs(t, err, models.ErrVersionNotEmpty)

	report, err := f.service.RebuildRatings(context.Background(), "v2", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)
}

func TestUpdateRatingsTwiceAppliesOnce(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 3, 0)
	ctx := context.Background()

	first, err := f.service.UpdateRatingsForCompletedMatch(ctx, 1, "v1")
	require.NoError(t, err)
	require.False(t, first.AlreadyApplied)

	second, err := f.service.UpdateRatingsForCompletedMatch(ctx, 1, "v1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.AlreadyApplied)
	assert.Equal(t, first.Home, second.Home)
	assert.Equal(t, first.Away, second.Away)

	stored, err := f.service.GetRatings(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.MatchesPlayed())
	assert.Equal(t, first.Home.Elo.Value, stored.Elo.Value)
	assert.Len(t, f.rec.changes, 6)
	assert.Equal(t, []int64{1}, f.rec.ratingEvents)
	assert.Equal(t, 1, f.rec.invalidated)

	// each version applies the match on its own
	other, err := f.service.UpdateRatingsForCompletedMatch(ctx, 1, "v2")
	require.NoError(t, err)
	assert.False(t, other.AlreadyApplied)
	assert.Equal(t, 1, other.Home.MatchesPlayed())
}

func TestUpdateRatingsWaitsForMatchLock(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 3, 0)
	f.service.lockTimeout = 20 * time.Millisecond
	ctx := context.Background()

	unlock, err := f.service.locker.Lock(ctx, MatchLockKey(1))
	require.NoError(t, err)

	_, err = f.service.UpdateRatingsForCompletedMatch(ctx, 1, "v1")
	assert.ErrorIs(t, err, models.ErrLockNotAcquired)
	assert.Empty(t, f.ratings.sets)
	assert.Empty(t, f.rec.ratingEvents)

	unlock()
	upd, err := f.service.UpdateRatingsForCompletedMatch(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, upd.Home.MatchesPlayed())
}

func TestRebuildRatingsAfterPredictionsOnly(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff.AddDate(0, 0, -7), 2, 1)
	f.matches.add(2, 1, 2, kickoff)

	// predicting the upcoming match stores default rows for both teams
	_, err := f.engine.CalculateMatchStatistics(context.Background(), 2, "v1")
	require.NoError(t, err)
	require.NotEmpty(t, f.ratings.sets)

	report, err := f.service.RebuildRatings(context.Background(), "v1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)

	set, err := f.service.GetRatings(context.Background(), 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, set.MatchesPlayed())
}

func TestUpdateRatingsReportsFailedInvalidation(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 3, 0)
	m := &errorMetrics{}
	f.service.metrics = m
	f.rec.invalidateErr = errors.New("redis down")

	upd, err := f.service.UpdateRatingsForCompletedMatch(context.Background(), 1, "v1")
	require.NoError(t, err)
	assert.False(t, upd.AlreadyApplied)
	assert.Equal(t, []string{"cache"}, m.errors)
	assert.Equal(t, []int64{1}, f.rec.ratingEvents)
}
