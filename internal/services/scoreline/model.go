package scoreline

import (
	"math"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/domain/service"
	"TipsEngine/pkg/config"
)

// Model predicts scorelines from attack/defense ratings.
type Model struct{}

var _ service.ScorelineModel = Model{}

func NewModel() Model { return Model{} }

// Lambdas returns the expected goals of both sides. Home advantage applies
// to the home side only; both are floored at MinLambda.
func Lambdas(home, away models.RatingSet, cfg config.ModelConfig) (lh, la float64) {
	lh = cfg.LeagueAvgGoals * home.Attack.Value / away.Defense.Value * cfg.HomeAdvantage
	la = cfg.LeagueAvgGoals * away.Attack.Value / home.Defense.Value
	return math.Max(lh, cfg.MinLambda), math.Max(la, cfg.MinLambda)
}

// Matrix builds the score matrix for a fixture.
func (Model) Matrix(home, away models.RatingSet, cfg config.ModelConfig) *ScoreMatrix {
	lh, la := Lambdas(home, away, cfg)
	return NewScoreMatrix(lh, la, cfg.Rho, cfg.MaxGoals)
}

func (m Model) Predict(home, away models.RatingSet, cfg config.ModelConfig) models.ScorelinePrediction {
	sm := m.Matrix(home, away, cfg)

	hw, d, aw := sm.MatchOdds()
	over, under := sm.OverUnder(2.5)
	yes, no := sm.BothTeamsToScore()
	mh, ma, mp := sm.MostLikely()

	return models.ScorelinePrediction{
		Probabilities: models.OutcomeProbabilities{
			HomeWin:           hw,
			Draw:              d,
			AwayWin:           aw,
			ExpectedHomeGoals: sm.LambdaHome,
			ExpectedAwayGoals: sm.LambdaAway,
		},
		Markets: models.ScorelineMarkets{
			Over25:         over,
			Under25:        under,
			BTTSYes:        yes,
			BTTSNo:         no,
			MostLikelyHome: mh,
			MostLikelyAway: ma,
			MostLikelyProb: mp,
		},
	}
}
