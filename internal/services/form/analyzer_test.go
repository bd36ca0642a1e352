package form

import (
	"testing"
	"time"

	"TipsEngine/internal/domain/models"
	"TipsEngine/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// history builds matches most recent first from "W"/"D"/"L" letters.
func history(results ...string) []models.TeamMatch {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.TeamMatch, 0, len(results))
	for i, r := range results {
		m := models.TeamMatch{MatchID: int64(100 - i), PlayedAt: base.AddDate(0, 0, -7*i)}
		switch r {
		case "W":
			m.GoalsFor, m.GoalsAgainst = 2, 0
		case "D":
			m.GoalsFor, m.GoalsAgainst = 1, 1
		case "L":
			m.GoalsFor, m.GoalsAgainst = 0, 1
		}
		out = append(out, m)
	}
	return out
}

func withXG(ms []models.TeamMatch, xg ...[2]float64) []models.TeamMatch {
	for i := range xg {
		ms[i].XGFor = f(xg[i][0])
		ms[i].XGAgainst = f(xg[i][1])
	}
	return ms
}

func TestEMAThreeWinsIncreasesBelowOne(t *testing.T) {
	ms := history("W", "W", "W")
	prev := seed
	for n := 1; n <= 3; n++ {
		v := EMA(chronological(ms[:n]), resultPoints, 0.3)
		assert.Greater(t, v, prev)
		assert.Less(t, v, 1.0)
		prev = v
	}
	// 0.5 -> 0.65 -> 0.755 -> 0.8285
	assert.InDelta(t, 0.8285, prev, 1e-9)
}

func TestAnalyzeNeedsMinimumMatches(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")

	got := NewAnalyzer().Analyze(history("W", "L"), cfg)
	assert.Nil(t, got.EMAForm)
	assert.Nil(t, got.XGForm)
	assert.Nil(t, got.XGTrend)
	assert.Equal(t, models.RegressionNone, got.Regression)
	assert.Equal(t, 2, got.Matches)
}

func TestAnalyzeOrderIsChronological(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")

	// most recent first: the latest result weighs most
	recentLoss := NewAnalyzer().Analyze(history("L", "W", "W"), cfg)
	recentWin := NewAnalyzer().Analyze(history("W", "W", "L"), cfg)
	require.NotNil(t, recentLoss.EMAForm)
	require.NotNil(t, recentWin.EMAForm)
	assert.Greater(t, *recentWin.EMAForm, *recentLoss.EMAForm)
}

func TestAnalyzeLookbackWindow(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")
	cfg.FormLookback = 3

	got := NewAnalyzer().Analyze(history("D", "D", "D", "W", "W", "W"), cfg)
	assert.Equal(t, 3, got.Matches)
	want := EMA(chronological(history("D", "D", "D")), resultPoints, cfg.FormAlpha)
	assert.InDelta(t, want, *got.EMAForm, 1e-12)
}

func TestAnalyzeXGTrendAndForm(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")
	ms := withXG(history("W", "W", "D", "L", "W", "W"),
		[2]float64{2.0, 0.5},
		[2]float64{1.5, 1.0},
		[2]float64{1.0, 1.0},
		[2]float64{0.5, 1.5},
		[2]float64{3.0, 0.0},
		[2]float64{1.0, 0.0},
	)

	got := NewAnalyzer().Analyze(ms, cfg)
	require.NotNil(t, got.XGTrend)
	require.NotNil(t, got.XGForm)
	assert.Equal(t, 6, got.XGMatches)
	// mean of the five most recent differences
	assert.InDelta(t, (1.5+0.5+0.0-1.0+3.0)/5, *got.XGTrend, 1e-12)
	assert.GreaterOrEqual(t, *got.XGForm, 0.0)
	assert.LessOrEqual(t, *got.XGForm, 1.0)
}

func TestAnalyzeXGNeedsThreeMatches(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")
	ms := withXG(history("W", "W", "W", "W"), [2]float64{1, 0}, [2]float64{1, 0})

	got := NewAnalyzer().Analyze(ms, cfg)
	require.NotNil(t, got.EMAForm)
	assert.Nil(t, got.XGForm)
	assert.Nil(t, got.XGTrend)
	assert.Equal(t, 2, got.XGMatches)
}

func TestXGPointsBounded(t *testing.T) {
	cases := []struct {
		xgFor, xgAgainst, want float64
	}{
		{2.5, 0.5, 1.0},
		{0.2, 2.0, 0.0},
		{1.0, 1.0, 0.5},
		{1.5, 1.0, 0.75},
	}
	for _, tc := range cases {
		m := models.TeamMatch{XGFor: f(tc.xgFor), XGAgainst: f(tc.xgAgainst)}
		assert.InDelta(t, tc.want, xgPoints(m), 1e-12)
	}
}

func TestRegression(t *testing.T) {
	assert.Equal(t, models.RegressionOverperforming, Regression(f(0.9), f(0.5), 0.2))
	assert.Equal(t, models.RegressionUnderperforming, Regression(f(0.2), f(0.6), 0.2))
	assert.Equal(t, models.RegressionNone, Regression(f(0.6), f(0.5), 0.2))
	assert.Equal(t, models.RegressionNone, Regression(f(0.9), nil, 0.2))
}

func TestAnalyzeFlagsOverperformer(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")
	// winning every match while being out-created
	ms := withXG(history("W", "W", "W", "W", "W"),
		[2]float64{0.4, 1.6},
		[2]float64{0.5, 1.8},
		[2]float64{0.3, 1.2},
		[2]float64{0.6, 1.4},
		[2]float64{0.5, 1.5},
	)

	got := NewAnalyzer().Analyze(ms, cfg)
	assert.Equal(t, models.RegressionOverperforming, got.Regression)
	assert.Less(t, *got.XGTrend, 0.0)
}
