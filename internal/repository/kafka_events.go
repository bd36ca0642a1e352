package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/dto"
	pkgkafka "TipsEngine/pkg/kafka"
	applogger "TipsEngine/pkg/logger"
)

type messageWriter interface {
	Publish(ctx context.Context, topic string, msg pkgkafka.Message) error
	Close() error
}

// EventTopics names the outbound topics.
type EventTopics struct {
	Statistics string
	Ratings    string
}

// KafkaEventPublisher emits engine results as JSON envelopes keyed by match
// id, so every event of one match lands on the same partition.
type KafkaEventPublisher struct {
	w      messageWriter
	topics EventTopics
	now    func() time.Time
	l      *applogger.Logger
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(p *pkgkafka.Producer, topics EventTopics) *KafkaEventPublisher {
	return &KafkaEventPublisher{w: p, topics: topics, now: time.Now}
}

// SetLogger injects a structured logger.
func (p *KafkaEventPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaEventPublisher) PublishStatistics(ctx context.Context, s *models.MatchStatistics) error {
	return p.publish(ctx, p.topics.Statistics, dto.EventStatisticsCalculated, s.MatchID, dto.FromStatistics(s))
}

func (p *KafkaEventPublisher) PublishRatingsUpdated(ctx context.Context, matchID int64, sets ...models.RatingSet) error {
	if len(sets) == 0 {
		return nil
	}
	data := dto.RatingsUpdatedData{
		MatchID:      matchID,
		ModelVersion: sets[0].Version,
		Teams:        make([]dto.RatingSetDTO, 0, len(sets)),
	}
	for _, s := range sets {
		data.Teams = append(data.Teams, dto.FromRatingSet(s))
	}
	return p.publish(ctx, p.topics.Ratings, dto.EventRatingsUpdated, matchID, data)
}

func (p *KafkaEventPublisher) Close() error { return p.w.Close() }

func (p *KafkaEventPublisher) publish(ctx context.Context, topic, eventType string, matchID int64, data interface{}) error {
	env := dto.Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		TraceID:    pkgkafka.TraceID(ctx),
		Data:       data,
	}
	headers := map[string]string{pkgkafka.HeaderEventID: env.EventID}
	if env.TraceID != "" {
		headers[pkgkafka.HeaderTraceID] = env.TraceID
	}
	msg := pkgkafka.Message{
		Key:     []byte(strconv.FormatInt(matchID, 10)),
		Value:   env,
		Headers: headers,
	}
	if err := p.w.Publish(ctx, topic, msg); err != nil {
		if p.l != nil {
			p.l.Error("publish event failed",
				applogger.String("topic", topic),
				applogger.String("event_type", eventType),
				applogger.Int64("match_id", matchID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish %s for match %d: %w", eventType, matchID, err)
	}
	return nil
}
