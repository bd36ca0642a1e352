package models

import "time"

// DataQuality grades how complete the inputs of a calculation were.
type DataQuality string

const (
	QualityFull    DataQuality = "full"
	QualityPartial DataQuality = "partial"
	QualityMinimal DataQuality = "minimal"
)

// QualityFor maps a missing-input count to a quality grade.
func QualityFor(missing int) DataQuality {
	switch {
	case missing == 0:
		return QualityFull
	case missing <= 2:
		return QualityPartial
	default:
		return QualityMinimal
	}
}

// Inputs counted towards data quality.
const (
	InputHomeRating = "home_rating"
	InputAwayRating = "away_rating"
	InputOdds       = "odds"
	InputHomeForm   = "home_form"
	InputAwayForm   = "away_form"
	InputHomeRest   = "home_rest"
	InputAwayRest   = "away_rest"
)

// RegressionFlag marks a team whose results diverge from its xG.
type RegressionFlag string

const (
	RegressionNone            RegressionFlag = ""
	RegressionOverperforming  RegressionFlag = "overperforming"
	RegressionUnderperforming RegressionFlag = "underperforming"
)

// OutcomeProbabilities is the 1X2 forecast plus expected goals.
type OutcomeProbabilities struct {
	HomeWin           float64
	Draw              float64
	AwayWin           float64
	ExpectedHomeGoals float64
	ExpectedAwayGoals float64
}

// For returns the probability of o.
func (p OutcomeProbabilities) For(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return p.HomeWin
	case OutcomeDraw:
		return p.Draw
	default:
		return p.AwayWin
	}
}

// ScorelineMarkets are secondary markets read off the score matrix.
type ScorelineMarkets struct {
	Over25         float64
	Under25        float64
	BTTSYes        float64
	BTTSNo         float64
	MostLikelyHome int
	MostLikelyAway int
	MostLikelyProb float64
}

// ScorelinePrediction is the full output of the scoreline model.
type ScorelinePrediction struct {
	Probabilities OutcomeProbabilities
	Markets       ScorelineMarkets
}

// FairProbabilities are bookmaker probabilities with the margin removed.
type FairProbabilities struct {
	Home   float64
	Draw   float64
	Away   float64
	Margin float64
}

// ExpectedValues per outcome. BestValue is nil when no outcome clears the
// edge threshold.
type ExpectedValues struct {
	Home      float64
	Draw      float64
	Away      float64
	BestValue *Outcome
}

// For returns the EV of o.
func (e ExpectedValues) For(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return e.Home
	case OutcomeDraw:
		return e.Draw
	default:
		return e.Away
	}
}

// StakeSuggestions are fractional-Kelly bankroll shares per outcome.
type StakeSuggestions struct {
	Home float64
	Draw float64
	Away float64
}

// FormMetrics summarises a team's recent results.
type FormMetrics struct {
	EMAForm    *float64
	XGForm     *float64
	XGTrend    *float64
	Regression RegressionFlag
	Matches    int
	XGMatches  int
}

// ValueAnalysis groups everything derived from bookmaker odds.
type ValueAnalysis struct {
	Odds   OddsQuote
	Fair   FairProbabilities
	EV     ExpectedValues
	Stakes StakeSuggestions
}

// MatchStatistics is the persisted result of one calculation. One record
// exists per match; recalculation overwrites it.
type MatchStatistics struct {
	MatchID      int64
	ModelVersion string

	Probabilities OutcomeProbabilities
	Markets       ScorelineMarkets

	// Odds is nil when no quote was available. Fair then mirrors the model
	// probabilities and EV and Stakes stay zero.
	Odds   *OddsQuote
	Fair   FairProbabilities
	EV     ExpectedValues
	Stakes StakeSuggestions

	HomeElo float64
	AwayElo float64

	HomeForm        FormMetrics
	AwayForm        FormMetrics
	HomeRestDays    *int
	AwayRestDays    *int
	ImportanceScore *float64
	DataQuality     DataQuality
	MissingInputs   []string
	CalculatedAt    time.Time
}
