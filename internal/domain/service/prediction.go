package service

import (
	"context"

	"TipsEngine/internal/domain/models"
	"TipsEngine/pkg/config"
)

// RatingUpdater computes new ratings for both teams from a final score.
type RatingUpdater interface {
	Update(home, away models.RatingSet, match models.Match, xg *models.MatchXG, cfg config.ModelConfig) (newHome, newAway models.RatingSet)
}

// ScorelineModel turns two rating sets into outcome probabilities.
type ScorelineModel interface {
	Predict(home, away models.RatingSet, cfg config.ModelConfig) models.ScorelinePrediction
}

// FormAnalyzer derives form metrics from a team's recent matches.
type FormAnalyzer interface {
	Analyze(recent []models.TeamMatch, cfg config.ModelConfig) models.FormMetrics
}

// ValueCalculator compares model probabilities against bookmaker odds.
type ValueCalculator interface {
	Analyze(probs models.OutcomeProbabilities, odds models.OddsQuote, cfg config.ModelConfig) (models.ValueAnalysis, error)
}

// ImportanceScorer rates how much a match matters to its teams, in [0, 1].
// A nil score means it could not be determined.
type ImportanceScorer interface {
	Score(ctx context.Context, match models.Match, cfg config.ModelConfig) (*float64, error)
}
