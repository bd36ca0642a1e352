package repository

import (
	"context"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
)

// NoopHistory is used when ClickHouse is disabled.
type NoopHistory struct{}

var _ domrepo.RatingHistory = NoopHistory{}

func (NoopHistory) RecordRatingChanges(context.Context, []models.RatingChange) error { return nil }
func (NoopHistory) RecordCalculation(context.Context, *models.MatchStatistics) error { return nil }
func (NoopHistory) Close() error                                                     { return nil }

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

var _ domrepo.EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishStatistics(context.Context, *models.MatchStatistics) error { return nil }
func (NoopPublisher) PublishRatingsUpdated(context.Context, int64, ...models.RatingSet) error {
	return nil
}
func (NoopPublisher) Close() error { return nil }
