package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/dto"
	"TipsEngine/pkg/cache"
	pkgkafka "TipsEngine/pkg/kafka"
)

type countingRatings struct {
	sets    map[int64]models.RatingSet
	applied map[int64]bool
	gets    int
	saves   int
	// afterRead runs once, between reading a set and returning it.
	afterRead func()
}

func (r *countingRatings) GetRatings(_ context.Context, teamID int64, version string, defaults models.RatingSet) (models.RatingSet, error) {
	r.gets++
	s, ok := r.sets[teamID]
	if !ok {
		r.sets[teamID] = defaults
		s = defaults
	}
	if f := r.afterRead; f != nil {
		r.afterRead = nil
		f()
	}
	return s, nil
}

func (r *countingRatings) SaveRatings(_ context.Context, sets ...models.RatingSet) error {
	r.saves++
	for _, s := range sets {
		r.sets[s.TeamID] = s
	}
	return nil
}

func (r *countingRatings) SaveMatchRatings(ctx context.Context, matchID int64, _ string, sets ...models.RatingSet) error {
	if r.applied[matchID] {
		return models.ErrAlreadyApplied
	}
	if r.applied == nil {
		r.applied = map[int64]bool{}
	}
	r.applied[matchID] = true
	return r.SaveRatings(ctx, sets...)
}

func (r *countingRatings) MatchApplied(_ context.Context, matchID int64, _ string) (bool, error) {
	return r.applied[matchID], nil
}

func (r *countingRatings) CountRatings(context.Context, string) (int, error) {
	n := 0
	for _, s := range r.sets {
		for _, row := range s.Rows() {
			if row.MatchesPlayed > 0 {
				n++
			}
		}
	}
	return n, nil
}

type failingSets struct {
	cache.Service
}

func (failingSets) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("cache down")
}

func eloSet(teamID int64, elo float64) models.RatingSet {
	return models.RatingSet{
		TeamID:  teamID,
		Version: "v1",
		Elo:     models.TeamRating{TeamID: teamID, Kind: models.RatingElo, Version: "v1", Value: elo},
	}
}

func TestCachedRatingsServesRepeatReadsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingRatings{sets: map[int64]models.RatingSet{}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRatings(inner, mc, time.Minute)

	first, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	second, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, first.Elo.Value, second.Elo.Value)
	assert.Equal(t, int64(7), second.TeamID)
}

func TestCachedRatingsSaveEvicts(t *testing.T) {
	ctx := context.Background()
	inner := &countingRatings{sets: map[int64]models.RatingSet{}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRatings(inner, mc, time.Minute)

	_, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	require.NoError(t, r.SaveRatings(ctx, eloSet(7, 1516)))

	got, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1516.0, got.Elo.Value)
	assert.Equal(t, 2, inner.gets)
	assert.Equal(t, 1, inner.saves)
}

func TestCachedRatingsReadRacingSaveIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	inner := &countingRatings{sets: map[int64]models.RatingSet{7: eloSet(7, 1500)}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRatings(inner, mc, time.Minute)

	// the save commits and evicts after the reader fetched 1500 but before
	// the reader fills the cache with it
	inner.afterRead = func() {
		require.NoError(t, r.SaveRatings(ctx, eloSet(7, 1516)))
	}
	stale, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, stale.Elo.Value)

	got, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1516.0, got.Elo.Value)
	assert.Equal(t, 2, inner.gets)

	again, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1516.0, again.Elo.Value)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedRatingsSaveMatchRatingsEvictsAndRejectsRepeat(t *testing.T) {
	ctx := context.Background()
	inner := &countingRatings{sets: map[int64]models.RatingSet{}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRatings(inner, mc, time.Minute)

	_, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	require.NoError(t, r.SaveMatchRatings(ctx, 42, "v1", eloSet(7, 1516)))

	applied, err := r.MatchApplied(ctx, 42, "v1")
	require.NoError(t, err)
	assert.True(t, applied)
	got, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1516.0, got.Elo.Value)

	err = r.SaveMatchRatings(ctx, 42, "v1", eloSet(7, 1532))
	assert.ErrorIs(t, err, models.ErrAlreadyApplied)
	assert.Equal(t, 1516.0, inner.sets[7].Elo.Value)
}

func TestCachedRatingsInvalidationErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	inner := &countingRatings{sets: map[int64]models.RatingSet{}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRatings(inner, failingSets{Service: mc}, time.Minute)

	assert.Error(t, r.InvalidateRatings(ctx, eloSet(7, 1516)))
	// the write committed, so the save itself succeeds
	require.NoError(t, r.SaveRatings(ctx, eloSet(7, 1516)))
	assert.Equal(t, 1, inner.saves)

	got, err := r.GetRatings(ctx, 7, "v1", eloSet(7, 1500))
	require.NoError(t, err)
	assert.Equal(t, 1516.0, got.Elo.Value)
}

type fakeInserter struct {
	rows   map[string][][]any
	err    error
	closed bool
}

func (f *fakeInserter) InitSchema(context.Context, []string) error { return nil }

func (f *fakeInserter) InsertBatch(_ context.Context, table string, rows [][]any) error {
	if f.err != nil {
		return f.err
	}
	f.rows[table] = append(f.rows[table], rows...)
	return nil
}

func (f *fakeInserter) Close() error {
	f.closed = true
	return nil
}

func TestCHRatingHistoryRecordsChanges(t *testing.T) {
	ins := &fakeInserter{rows: map[string][][]any{}}
	h := &CHRatingHistory{ch: ins}
	at := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	err := h.RecordRatingChanges(context.Background(), []models.RatingChange{
		{TeamID: 1, MatchID: 9, Kind: models.RatingElo, Version: "v1", Before: 1500, After: 1516, Matches: 1, Confidence: models.ConfidenceLow, At: at},
	})
	require.NoError(t, err)

	rows := ins.rows[ratingChangesTable]
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 10)
	assert.Equal(t, 16.0, rows[0][6])
	assert.Equal(t, uint32(1), rows[0][7])
	assert.Equal(t, "low", rows[0][8])

	require.NoError(t, h.RecordRatingChanges(context.Background(), nil))
	assert.Len(t, ins.rows[ratingChangesTable], 1)
}

func TestCHRatingHistoryRecordsCalculation(t *testing.T) {
	ins := &fakeInserter{rows: map[string][][]any{}}
	h := &CHRatingHistory{ch: ins}

	st := sampleStatistics()
	require.NoError(t, h.RecordCalculation(context.Background(), st))

	rows := ins.rows[statisticsLogTable]
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 17)
	assert.Equal(t, st.MatchID, rows[0][0])
	assert.Equal(t, string(st.DataQuality), rows[0][14])

	ins.err = errors.New("boom")
	assert.Error(t, h.RecordCalculation(context.Background(), st))

	require.NoError(t, h.Close())
	assert.True(t, ins.closed)
}

type fakeWriter struct {
	topics []string
	msgs   []pkgkafka.Message
}

func (w *fakeWriter) Publish(_ context.Context, topic string, msg pkgkafka.Message) error {
	w.topics = append(w.topics, topic)
	w.msgs = append(w.msgs, msg)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaEventPublisherStatistics(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaEventPublisher{
		w:      w,
		topics: EventTopics{Statistics: "stats", Ratings: "ratings"},
		now:    func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) },
	}
	ctx := pkgkafka.WithTraceID(context.Background(), "trace-1")

	require.NoError(t, p.PublishStatistics(ctx, sampleStatistics()))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "stats", w.topics[0])
	msg := w.msgs[0]
	assert.Equal(t, "trace-1", msg.Headers[pkgkafka.HeaderTraceID])
	assert.NotEmpty(t, msg.Headers[pkgkafka.HeaderEventID])

	raw, err := json.Marshal(msg.Value)
	require.NoError(t, err)
	var env struct {
		EventID   string            `json:"event_id"`
		EventType string            `json:"event_type"`
		TraceID   string            `json:"trace_id"`
		Data      dto.StatisticsDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, dto.EventStatisticsCalculated, env.EventType)
	assert.Equal(t, msg.Headers[pkgkafka.HeaderEventID], env.EventID)
	assert.Equal(t, sampleStatistics().MatchID, env.Data.MatchID)
	assert.Equal(t, "1", string(msg.Key))
}

func TestKafkaEventPublisherRatings(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaEventPublisher{w: w, topics: EventTopics{Statistics: "stats", Ratings: "ratings"}, now: time.Now}

	require.NoError(t, p.PublishRatingsUpdated(context.Background(), 9))
	assert.Empty(t, w.msgs)

	require.NoError(t, p.PublishRatingsUpdated(context.Background(), 9, eloSet(1, 1516), eloSet(2, 1484)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ratings", w.topics[0])
	_, hasTrace := w.msgs[0].Headers[pkgkafka.HeaderTraceID]
	assert.False(t, hasTrace)

	env, ok := w.msgs[0].Value.(dto.Envelope)
	require.True(t, ok)
	data, ok := env.Data.(dto.RatingsUpdatedData)
	require.True(t, ok)
	assert.Len(t, data.Teams, 2)
	assert.Equal(t, "v1", data.ModelVersion)
}
