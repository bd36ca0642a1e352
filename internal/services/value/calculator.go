package value

import (
	"fmt"
	"math"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/domain/service"
	"TipsEngine/pkg/config"
)

// MaxStake caps any suggested stake at 10% of bankroll.
const MaxStake = 0.10

// Calculator de-vigs odds and prices model probabilities against them.
type Calculator struct{}

var _ service.ValueCalculator = Calculator{}

func NewCalculator() Calculator { return Calculator{} }

// FairProbabilities removes the bookmaker margin proportionally.
func FairProbabilities(odds models.OddsQuote) (models.FairProbabilities, error) {
	if err := validateOdds(odds); err != nil {
		return models.FairProbabilities{}, err
	}
	ih, id, ia := 1/odds.Home, 1/odds.Draw, 1/odds.Away
	sum := ih + id + ia
	return models.FairProbabilities{
		Home:   ih / sum,
		Draw:   id / sum,
		Away:   ia / sum,
		Margin: sum - 1,
	}, nil
}

// ExpectedValues prices each outcome and picks the best one clearing the
// edge threshold.
func ExpectedValues(probs models.OutcomeProbabilities, odds models.OddsQuote, threshold float64) models.ExpectedValues {
	ev := models.ExpectedValues{
		Home: probs.HomeWin*odds.Home - 1,
		Draw: probs.Draw*odds.Draw - 1,
		Away: probs.AwayWin*odds.Away - 1,
	}
	best := math.Inf(-1)
	for _, o := range models.Outcomes() {
		if v := ev.For(o); v > threshold && v > best {
			o := o
			ev.BestValue = &o
			best = v
		}
	}
	return ev
}

// KellyFraction returns the fractional Kelly stake, never negative and never
// above MaxStake.
func KellyFraction(prob, odds, fraction float64) float64 {
	b := odds - 1
	if b <= 0 || prob <= 0 {
		return 0
	}
	// b*p - q simplifies to p*odds - 1
	edge := prob*odds - 1
	if edge <= 0 {
		return 0
	}
	return math.Min(edge/b*fraction, MaxStake)
}

func (Calculator) Analyze(probs models.OutcomeProbabilities, odds models.OddsQuote, cfg config.ModelConfig) (models.ValueAnalysis, error) {
	fair, err := FairProbabilities(odds)
	if err != nil {
		return models.ValueAnalysis{}, err
	}
	return models.ValueAnalysis{
		Odds: odds,
		Fair: fair,
		EV:   ExpectedValues(probs, odds, cfg.EdgeThreshold),
		Stakes: models.StakeSuggestions{
			Home: KellyFraction(probs.HomeWin, odds.Home, cfg.KellyFraction),
			Draw: KellyFraction(probs.Draw, odds.Draw, cfg.KellyFraction),
			Away: KellyFraction(probs.AwayWin, odds.Away, cfg.KellyFraction),
		},
	}, nil
}

func validateOdds(odds models.OddsQuote) error {
	for _, o := range models.Outcomes() {
		v := odds.For(o)
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 1 {
			return fmt.Errorf("%w: %s=%v", models.ErrInvalidOdds, o, v)
		}
	}
	return nil
}
