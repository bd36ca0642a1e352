package usecase

import (
	"fmt"

	domrepo "TipsEngine/internal/domain/repository"
	domsvc "TipsEngine/internal/domain/service"
	"TipsEngine/internal/services/form"
	"TipsEngine/internal/services/importance"
	"TipsEngine/internal/services/rating"
	"TipsEngine/internal/services/scoreline"
	"TipsEngine/internal/services/value"
)

// Stores groups the persistence ports the use cases work against.
type Stores struct {
	Matches    domrepo.MatchRepository
	Ratings    domrepo.RatingRepository
	Statistics domrepo.StatisticsRepository
	History    domrepo.RatingHistory
	Events     domrepo.EventPublisher
}

// Calculators groups the pure model components.
type Calculators struct {
	Ratings    domsvc.RatingUpdater
	Scoreline  domsvc.ScorelineModel
	Form       domsvc.FormAnalyzer
	Value      domsvc.ValueCalculator
	Importance domsvc.ImportanceScorer
}

// DefaultCalculators wires the built-in model components.
func DefaultCalculators() Calculators {
	return Calculators{
		Ratings:    rating.NewUpdater(),
		Scoreline:  scoreline.NewModel(),
		Form:       form.NewAnalyzer(),
		Value:      value.NewCalculator(),
		Importance: importance.NewFixed(),
	}
}

// TeamLockKey serialises rating writes of one team under one version.
func TeamLockKey(version string, teamID int64) string {
	return fmt.Sprintf("team:%s:%d", version, teamID)
}

// MatchLockKey serialises calculations of one match.
func MatchLockKey(matchID int64) string {
	return fmt.Sprintf("match:%d", matchID)
}
