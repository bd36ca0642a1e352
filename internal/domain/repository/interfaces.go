package repository

import (
	"context"
	"time"

	"TipsEngine/internal/domain/models"
)

// MatchRepository reads fixtures, odds and auxiliary data written by the
// ingestion services. The engine never writes these tables.
type MatchRepository interface {
	GetMatch(ctx context.Context, matchID int64) (*models.Match, error)
	// RecentMatches returns finished matches of a team played strictly
	// before the given time, most recent first.
	RecentMatches(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.TeamMatch, error)
	// PreviousMatchAt returns the kickoff of the team's last match before
	// the given time, or nil when there is none.
	PreviousMatchAt(ctx context.Context, teamID int64, before time.Time) (*time.Time, error)
	// CurrentOdds returns the latest 1X2 quote, or nil when none exists.
	CurrentOdds(ctx context.Context, matchID int64) (*models.OddsQuote, error)
	// AuxData returns the typed auxiliary payload, or nil when none exists.
	AuxData(ctx context.Context, matchID int64, dataType models.AuxDataType) (models.AuxData, error)
	// FinishedMatches lists finished matches in kickoff order. limit <= 0
	// means no limit.
	FinishedMatches(ctx context.Context, limit int) ([]models.Match, error)
}

// RatingRepository persists team ratings. Rows are never deleted.
type RatingRepository interface {
	// GetRatings returns the team's set under version, creating the rows at
	// their defaults on first access.
	GetRatings(ctx context.Context, teamID int64, version string, defaults models.RatingSet) (models.RatingSet, error)
	// SaveRatings writes every row of the given sets in one transaction.
	SaveRatings(ctx context.Context, sets ...models.RatingSet) error
	// SaveMatchRatings writes the sets and marks matchID as applied under
	// version in one transaction. It writes nothing and returns
	// models.ErrAlreadyApplied when the match was applied before.
	SaveMatchRatings(ctx context.Context, matchID int64, version string, sets ...models.RatingSet) error
	MatchApplied(ctx context.Context, matchID int64, version string) (bool, error)
	// CountRatings counts rows under version that absorbed at least one
	// match. Untouched defaults are not counted.
	CountRatings(ctx context.Context, version string) (int, error)
}

// StatisticsRepository persists calculation results, one row per match.
type StatisticsRepository interface {
	UpsertStatistics(ctx context.Context, s *models.MatchStatistics) error
	GetStatistics(ctx context.Context, matchID int64) (*models.MatchStatistics, error)
}

// RatingHistory is an append-only analytical log of rating changes and
// calculations.
type RatingHistory interface {
	RecordRatingChanges(ctx context.Context, changes []models.RatingChange) error
	RecordCalculation(ctx context.Context, s *models.MatchStatistics) error
	Close() error
}

// EventPublisher announces engine results to downstream consumers.
type EventPublisher interface {
	PublishStatistics(ctx context.Context, s *models.MatchStatistics) error
	PublishRatingsUpdated(ctx context.Context, matchID int64, sets ...models.RatingSet) error
	Close() error
}

// Locker serialises work on a key across goroutines and processes.
type Locker interface {
	// Lock blocks until the key is held or ctx is done.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Metrics interface {
	RecordCalculation(version string, quality models.DataQuality)
	RecordRatingUpdate(version string)
	RecordValueBet(outcome models.Outcome)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// RatingInvalidator drops cached copies of rating sets after a write.
type RatingInvalidator interface {
	InvalidateRatings(ctx context.Context, sets ...models.RatingSet) error
}
