package form

import (
	"math"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/domain/service"
	"TipsEngine/pkg/config"
)

const (
	seed       = 0.5
	drawPoints = 1.0 / 3.0
)

// Analyzer computes result and xG based form.
type Analyzer struct{}

var _ service.FormAnalyzer = Analyzer{}

func NewAnalyzer() Analyzer { return Analyzer{} }

// Analyze expects recent matches most recent first. Only the first
// FormLookback entries are considered.
func (Analyzer) Analyze(recent []models.TeamMatch, cfg config.ModelConfig) models.FormMetrics {
	if len(recent) > cfg.FormLookback {
		recent = recent[:cfg.FormLookback]
	}

	var withXG []models.TeamMatch
	for _, m := range recent {
		if m.HasXG() {
			withXG = append(withXG, m)
		}
	}

	out := models.FormMetrics{Matches: len(recent), XGMatches: len(withXG)}

	if len(recent) >= cfg.FormMinMatches {
		v := EMA(chronological(recent), resultPoints, cfg.FormAlpha)
		out.EMAForm = &v
	}
	if len(withXG) >= cfg.FormMinMatches {
		v := EMA(chronological(withXG), xgPoints, cfg.FormAlpha)
		out.XGForm = &v

		window := withXG
		if len(window) > cfg.XGTrendWindow {
			window = window[:cfg.XGTrendWindow]
		}
		sum := 0.0
		for _, m := range window {
			sum += *m.XGFor - *m.XGAgainst
		}
		trend := sum / float64(len(window))
		out.XGTrend = &trend
	}
	out.Regression = Regression(out.EMAForm, out.XGForm, cfg.RegressionThreshold)
	return out
}

// EMA folds points over matches (oldest first) starting from the neutral seed.
func EMA(matches []models.TeamMatch, points func(models.TeamMatch) float64, alpha float64) float64 {
	ema := seed
	for _, m := range matches {
		ema = alpha*points(m) + (1-alpha)*ema
	}
	return ema
}

// Regression flags a team whose results run ahead of or behind its xG form.
func Regression(resultForm, xgForm *float64, threshold float64) models.RegressionFlag {
	if resultForm == nil || xgForm == nil {
		return models.RegressionNone
	}
	switch diff := *resultForm - *xgForm; {
	case diff > threshold:
		return models.RegressionOverperforming
	case diff < -threshold:
		return models.RegressionUnderperforming
	default:
		return models.RegressionNone
	}
}

func resultPoints(m models.TeamMatch) float64 {
	switch m.Result() {
	case models.ResultWin:
		return 1
	case models.ResultDraw:
		return drawPoints
	default:
		return 0
	}
}

// xgPoints maps the xG difference linearly: <= -1 is 0, 0 is 0.5, >= +1 is 1.
func xgPoints(m models.TeamMatch) float64 {
	diff := *m.XGFor - *m.XGAgainst
	return math.Min(1, math.Max(0, (diff+1)/2))
}

func chronological(recent []models.TeamMatch) []models.TeamMatch {
	out := make([]models.TeamMatch, len(recent))
	for i, m := range recent {
		out[len(recent)-1-i] = m
	}
	return out
}
