package features

import (
	"testing"
	"time"

	"TipsEngine/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func TestRestDays(t *testing.T) {
	kickoff := at("2024-04-20T15:00:00Z")

	prev := at("2024-04-13T19:00:00Z")
	got := RestDays(&prev, kickoff, 90)
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)

	assert.Nil(t, RestDays(nil, kickoff, 90))

	stale := at("2021-01-01T15:00:00Z")
	assert.Nil(t, RestDays(&stale, kickoff, 90))

	future := at("2024-05-01T15:00:00Z")
	assert.Nil(t, RestDays(&future, kickoff, 90))
}

func TestPerspective(t *testing.T) {
	hg, ag := 2, 1
	m := models.Match{ID: 5, HomeTeamID: 10, AwayTeamID: 20, HomeGoals: &hg, AwayGoals: &ag, KickoffAt: at("2024-04-13T15:00:00Z")}
	xh, xa := 1.8, 0.7
	aux := &models.XStatsData{Home: models.XStatsTeam{XG: &xh}, Away: models.XStatsTeam{XG: &xa}}

	home, ok := Perspective(m, 10, aux)
	require.True(t, ok)
	assert.True(t, home.IsHome)
	assert.Equal(t, int64(20), home.OpponentID)
	assert.Equal(t, models.ResultWin, home.Result())
	assert.Equal(t, 1.8, *home.XGFor)
	assert.Equal(t, 0.7, *home.XGAgainst)

	away, ok := Perspective(m, 20, nil)
	require.True(t, ok)
	assert.False(t, away.IsHome)
	assert.Equal(t, models.ResultLoss, away.Result())
	assert.False(t, away.HasXG())

	_, ok = Perspective(m, 99, nil)
	assert.False(t, ok)

	_, ok = Perspective(models.Match{ID: 6, HomeTeamID: 10, AwayTeamID: 20}, 10, nil)
	assert.False(t, ok)
}

func TestMissingInputs(t *testing.T) {
	form := 0.6
	rest := 4

	full := MissingInputs(Inputs{
		HomeMatches: 3, AwayMatches: 8, HasOdds: true,
		HomeForm: &form, AwayForm: &form, HomeRestDays: &rest, AwayRestDays: &rest,
	})
	assert.Empty(t, full)
	assert.Equal(t, models.QualityFull, models.QualityFor(len(full)))

	partial := MissingInputs(Inputs{
		HomeMatches: 3, AwayMatches: 8,
		HomeForm: &form, AwayForm: &form, HomeRestDays: &rest,
	})
	assert.Equal(t, []string{models.InputOdds, models.InputAwayRest}, partial)
	assert.Equal(t, models.QualityPartial, models.QualityFor(len(partial)))

	none := MissingInputs(Inputs{})
	assert.Len(t, none, 7)
	assert.Equal(t, models.QualityMinimal, models.QualityFor(len(none)))
}
