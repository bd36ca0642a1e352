package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, TierFor(0))
	assert.Equal(t, ConfidenceLow, TierFor(4))
	assert.Equal(t, ConfidenceMedium, TierFor(5))
	assert.Equal(t, ConfidenceMedium, TierFor(14))
	assert.Equal(t, ConfidenceHigh, TierFor(15))
	assert.Equal(t, ConfidenceHigh, TierFor(200))
}

func TestQualityFor(t *testing.T) {
	assert.Equal(t, QualityFull, QualityFor(0))
	assert.Equal(t, QualityPartial, QualityFor(1))
	assert.Equal(t, QualityPartial, QualityFor(2))
	assert.Equal(t, QualityMinimal, QualityFor(3))
	assert.Equal(t, QualityMinimal, QualityFor(7))
}

func TestTeamMatchResult(t *testing.T) {
	assert.Equal(t, ResultWin, TeamMatch{GoalsFor: 2, GoalsAgainst: 1}.Result())
	assert.Equal(t, ResultDraw, TeamMatch{GoalsFor: 0, GoalsAgainst: 0}.Result())
	assert.Equal(t, ResultLoss, TeamMatch{GoalsFor: 1, GoalsAgainst: 3}.Result())
}

func TestRatingSetSetGet(t *testing.T) {
	var s RatingSet
	s.Set(TeamRating{Kind: RatingAttack, Value: 1.2})
	s.Set(TeamRating{Kind: RatingElo, Value: 1510, MatchesPlayed: 3})

	assert.Equal(t, 1.2, s.Get(RatingAttack).Value)
	assert.Equal(t, 1510.0, s.Get(RatingElo).Value)
	assert.Equal(t, 3, s.MatchesPlayed())
	assert.Len(t, s.Rows(), 3)
}

func TestDecodeXStatsDecimalComma(t *testing.T) {
	raw := []byte(`{
		"homeTeam": {"name": "AIK", "goalStats": {"xg": "1,45", "xgc": "0,98"}, "expectedPoints": {"xp": "1,7"}},
		"awayTeam": {"name": "Hammarby", "goalStats": {"xg": "1.10", "xgc": "1,30"}},
		"selectedPeriod": "Hela säsongen - Hemma & Borta"
	}`)

	data, err := DecodeAuxData("xStats", raw)
	require.NoError(t, err)
	require.Equal(t, AuxXStats, data.DataType())

	x := data.(XStatsData)
	assert.Equal(t, "AIK", x.Home.Name)
	require.NotNil(t, x.Home.XG)
	assert.InDelta(t, 1.45, *x.Home.XG, 1e-9)
	assert.InDelta(t, 0.98, *x.Home.XGA, 1e-9)
	assert.InDelta(t, 1.7, *x.Home.XP, 1e-9)
	assert.InDelta(t, 1.30, *x.Away.XGA, 1e-9)

	xg, ok := x.MatchXG()
	require.True(t, ok)
	assert.InDelta(t, 1.45, xg.Home, 1e-9)
	assert.InDelta(t, 1.10, xg.Away, 1e-9)
}

func TestDecodeXStatsLegacyFields(t *testing.T) {
	raw := []byte(`{"homeTeam": {"name": "A", "xg": 1.2, "xga": 0.8}, "awayTeam": {"name": "B", "xg": 0.9}}`)

	data, err := DecodeAuxData("xStats", raw)
	require.NoError(t, err)

	x := data.(XStatsData)
	xgFor, xgAgainst := x.SideXG(false)
	require.NotNil(t, xgFor)
	require.NotNil(t, xgAgainst)
	assert.Equal(t, 0.9, *xgFor)
	assert.Equal(t, 1.2, *xgAgainst)
}

func TestDecodeXStatsMissingXG(t *testing.T) {
	data, err := DecodeAuxData("xStats", []byte(`{"homeTeam": {"name": "A", "goalStats": {"xg": "-"}}, "awayTeam": {"name": "B"}}`))
	require.NoError(t, err)

	_, ok := data.(XStatsData).MatchXG()
	assert.False(t, ok)
}

func TestDecodeUnknownAuxData(t *testing.T) {
	_, err := DecodeAuxData("lineup", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownAuxData)
}
