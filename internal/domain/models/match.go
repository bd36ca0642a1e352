package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchFinished  MatchStatus = "finished"
)

// Match is a fixture as seen by the engine. Goals are nil until the final
// score is known.
type Match struct {
	ID           int64
	LeagueID     int64
	LeagueName   string
	Season       string
	HomeTeamID   int64
	AwayTeamID   int64
	HomeTeamName string
	AwayTeamName string
	KickoffAt    time.Time
	Status       MatchStatus
	HomeGoals    *int
	AwayGoals    *int
}

// HasFinalScore reports whether both goal counts are recorded.
func (m Match) HasFinalScore() bool {
	return m.HomeGoals != nil && m.AwayGoals != nil
}

// Outcome is one leg of the 1X2 market.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// Outcomes lists the 1X2 legs in market order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}
}

// OddsQuote holds decimal odds for the three outcomes.
type OddsQuote struct {
	MatchID     int64
	Home        float64
	Draw        float64
	Away        float64
	Source      string
	CollectedAt time.Time
}

// For returns the decimal odds for o.
func (q OddsQuote) For(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return q.Home
	case OutcomeDraw:
		return q.Draw
	default:
		return q.Away
	}
}

// MatchResult is a finished match seen from one team's side.
type MatchResult string

const (
	ResultWin  MatchResult = "W"
	ResultDraw MatchResult = "D"
	ResultLoss MatchResult = "L"
)

// TeamMatch is one past match from a team's perspective. XG fields are nil
// when no auxiliary data was stored for the match.
type TeamMatch struct {
	MatchID      int64
	PlayedAt     time.Time
	OpponentID   int64
	IsHome       bool
	GoalsFor     int
	GoalsAgainst int
	XGFor        *float64
	XGAgainst    *float64
}

func (m TeamMatch) Result() MatchResult {
	switch {
	case m.GoalsFor > m.GoalsAgainst:
		return ResultWin
	case m.GoalsFor < m.GoalsAgainst:
		return ResultLoss
	default:
		return ResultDraw
	}
}

// HasXG reports whether both xG figures are present.
func (m TeamMatch) HasXG() bool {
	return m.XGFor != nil && m.XGAgainst != nil
}

// MatchXG carries the expected-goals figures of a finished match.
type MatchXG struct {
	Home float64
	Away float64
}
