package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"TipsEngine/internal/domain/models"
	pkgkafka "TipsEngine/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchFinished(f *fixture) *MatchFinishedHandler {
	return NewMatchFinishedHandler("match.finished", f.service, f.engine)
}

func TestMatchFinishedUpdatesRatingsAndStatistics(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 2, 0)
	h := newMatchFinished(f)

	require.Equal(t, "match.finished", h.Topic())
	require.NoError(t, h.Handle(context.Background(), []byte(`{"match_id":1,"home_goals":2,"away_goals":0}`)))

	assert.Equal(t, []int64{1}, f.rec.ratingEvents)
	st, ok := f.stats.rows[1]
	require.True(t, ok)
	assert.Greater(t, st.HomeElo, st.AwayElo)
}

func TestMatchFinishedRejectsBadPayloads(t *testing.T) {
	f := newFixture(t)
	h := newMatchFinished(f)

	var perm *pkgkafka.PermanentError
	err := h.Handle(context.Background(), []byte(`{not json`))
	assert.True(t, errors.As(err, &perm))

	err = h.Handle(context.Background(), []byte(`{"match_id":0}`))
	assert.True(t, errors.As(err, &perm))

	err = h.Handle(context.Background(), []byte(`{"match_id":404}`))
	require.True(t, errors.As(err, &perm))
	assert.ErrorIs(t, err, models.ErrMatchNotFound)
}

type failingRater struct{ err error }

func (r failingRater) UpdateRatingsForCompletedMatch(context.Context, int64, string) (*RatingUpdate, error) {
	return nil, r.err
}

func TestMatchFinishedKeepsTransientErrorsRetryable(t *testing.T) {
	f := newFixture(t)
	h := &MatchFinishedHandler{topic: "t", ratings: failingRater{err: errors.New("db down")}, engine: f.engine}

	err := h.Handle(context.Background(), []byte(`{"match_id":1}`))
	require.Error(t, err)
	var perm *pkgkafka.PermanentError
	assert.False(t, errors.As(err, &perm))
}

// flakyCalculator fails its first call and then delegates.
type flakyCalculator struct {
	next   matchCalculator
	failed bool
}

func (c *flakyCalculator) CalculateMatchStatistics(ctx context.Context, matchID int64, version string) (*models.MatchStatistics, error) {
	if !c.failed {
		c.failed = true
		return nil, errors.New("statistics store down")
	}
	return c.next.CalculateMatchStatistics(ctx, matchID, version)
}

func TestMatchFinishedRedeliveryAppliesRatingsOnce(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff, 2, 0)
	h := &MatchFinishedHandler{topic: "match.finished", ratings: f.service, engine: &flakyCalculator{next: f.engine}}
	payload := []byte(`{"match_id":1,"home_goals":2,"away_goals":0}`)

	err := h.Handle(context.Background(), payload)
	require.Error(t, err)
	var perm *pkgkafka.PermanentError
	require.False(t, errors.As(err, &perm))

	// the broker redelivers after the failed statistics step
	require.NoError(t, h.Handle(context.Background(), payload))

	set, err := f.service.GetRatings(context.Background(), 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, set.MatchesPlayed())
	assert.Equal(t, []int64{1}, f.rec.ratingEvents)
	assert.Len(t, f.rec.changes, 6)
	_, ok := f.stats.rows[1]
	assert.True(t, ok)
}

func TestRecalculateJob(t *testing.T) {
	f := newFixture(t)
	f.matches.add(1, 1, 2, kickoff)
	f.matches.add(2, 3, 4, kickoff)
	job := NewRecalculateJob(f.engine, nil)

	assert.Equal(t, RecalculateJobType, job.Type())

	payload, err := json.Marshal(models.RecalculateRequest{MatchIDs: []int64{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), payload))
	assert.Len(t, f.stats.rows, 2)

	assert.Error(t, job.Handle(context.Background(), nil))
	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`{"match_ids":[]}`)))
	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`{"match_ids":[1],"version":"v9"}`)))
}
