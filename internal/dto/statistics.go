package dto

import (
	"fmt"
	"time"

	"TipsEngine/internal/domain/models"
)

// Wire shapes shared by the HTTP API and the Kafka events. Domain models
// stay free of transport tags; everything leaving the process goes through
// these.

type ProbabilitiesDTO struct {
	HomeWin           float64 `json:"home_win"`
	Draw              float64 `json:"draw"`
	AwayWin           float64 `json:"away_win"`
	ExpectedHomeGoals float64 `json:"expected_home_goals"`
	ExpectedAwayGoals float64 `json:"expected_away_goals"`
}

type MarketsDTO struct {
	Over25          float64 `json:"over_2_5"`
	Under25         float64 `json:"under_2_5"`
	BTTSYes         float64 `json:"btts_yes"`
	BTTSNo          float64 `json:"btts_no"`
	MostLikelyScore string  `json:"most_likely_score"`
	MostLikelyProb  float64 `json:"most_likely_prob"`
}

type OddsDTO struct {
	Home        float64    `json:"home"`
	Draw        float64    `json:"draw"`
	Away        float64    `json:"away"`
	Source      string     `json:"source,omitempty"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
}

type FairDTO struct {
	Home   float64 `json:"home"`
	Draw   float64 `json:"draw"`
	Away   float64 `json:"away"`
	Margin float64 `json:"bookmaker_margin"`
}

type ExpectedValueDTO struct {
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
	BestValue *string `json:"best_value"`
}

type StakesDTO struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

type FormDTO struct {
	EMAForm    *float64 `json:"ema_form"`
	XGForm     *float64 `json:"xg_form"`
	XGTrend    *float64 `json:"xg_trend"`
	Regression string   `json:"regression_flag,omitempty"`
	Matches    int      `json:"matches"`
	XGMatches  int      `json:"xg_matches"`
}

type StatisticsDTO struct {
	MatchID         int64            `json:"match_id"`
	ModelVersion    string           `json:"model_version"`
	Probabilities   ProbabilitiesDTO `json:"probabilities"`
	Markets         MarketsDTO       `json:"markets"`
	Odds            *OddsDTO         `json:"odds"`
	Fair            FairDTO          `json:"fair_probabilities"`
	ExpectedValue   ExpectedValueDTO `json:"expected_value"`
	Stakes          StakesDTO        `json:"kelly_stakes"`
	HomeElo         float64          `json:"home_elo"`
	AwayElo         float64          `json:"away_elo"`
	HomeForm        FormDTO          `json:"home_form"`
	AwayForm        FormDTO          `json:"away_form"`
	HomeRestDays    *int             `json:"home_rest_days"`
	AwayRestDays    *int             `json:"away_rest_days"`
	ImportanceScore *float64         `json:"importance_score"`
	DataQuality     string           `json:"data_quality"`
	MissingInputs   []string         `json:"missing_inputs"`
	CalculatedAt    time.Time        `json:"calculated_at"`
}

func FromStatistics(s *models.MatchStatistics) StatisticsDTO {
	out := StatisticsDTO{
		MatchID:      s.MatchID,
		ModelVersion: s.ModelVersion,
		Probabilities: ProbabilitiesDTO{
			HomeWin:           s.Probabilities.HomeWin,
			Draw:              s.Probabilities.Draw,
			AwayWin:           s.Probabilities.AwayWin,
			ExpectedHomeGoals: s.Probabilities.ExpectedHomeGoals,
			ExpectedAwayGoals: s.Probabilities.ExpectedAwayGoals,
		},
		Markets: MarketsDTO{
			Over25:          s.Markets.Over25,
			Under25:         s.Markets.Under25,
			BTTSYes:         s.Markets.BTTSYes,
			BTTSNo:          s.Markets.BTTSNo,
			MostLikelyScore: fmt.Sprintf("%d-%d", s.Markets.MostLikelyHome, s.Markets.MostLikelyAway),
			MostLikelyProb:  s.Markets.MostLikelyProb,
		},
		Fair:            FairDTO{Home: s.Fair.Home, Draw: s.Fair.Draw, Away: s.Fair.Away, Margin: s.Fair.Margin},
		ExpectedValue:   ExpectedValueDTO{Home: s.EV.Home, Draw: s.EV.Draw, Away: s.EV.Away},
		Stakes:          StakesDTO{Home: s.Stakes.Home, Draw: s.Stakes.Draw, Away: s.Stakes.Away},
		HomeElo:         s.HomeElo,
		AwayElo:         s.AwayElo,
		HomeForm:        fromForm(s.HomeForm),
		AwayForm:        fromForm(s.AwayForm),
		HomeRestDays:    s.HomeRestDays,
		AwayRestDays:    s.AwayRestDays,
		ImportanceScore: s.ImportanceScore,
		DataQuality:     string(s.DataQuality),
		MissingInputs:   s.MissingInputs,
		CalculatedAt:    s.CalculatedAt.UTC(),
	}
	if out.MissingInputs == nil {
		out.MissingInputs = []string{}
	}
	if s.EV.BestValue != nil {
		best := string(*s.EV.BestValue)
		out.ExpectedValue.BestValue = &best
	}
	if s.Odds != nil {
		out.Odds = &OddsDTO{Home: s.Odds.Home, Draw: s.Odds.Draw, Away: s.Odds.Away, Source: s.Odds.Source}
		if !s.Odds.CollectedAt.IsZero() {
			at := s.Odds.CollectedAt.UTC()
			out.Odds.CollectedAt = &at
		}
	}
	return out
}

func fromForm(f models.FormMetrics) FormDTO {
	return FormDTO{
		EMAForm:    f.EMAForm,
		XGForm:     f.XGForm,
		XGTrend:    f.XGTrend,
		Regression: string(f.Regression),
		Matches:    f.Matches,
		XGMatches:  f.XGMatches,
	}
}
