package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/dto"
	"TipsEngine/pkg/config"
	pkgkafka "TipsEngine/pkg/kafka"
	applogger "TipsEngine/pkg/logger"
)

type matchRater interface {
	UpdateRatingsForCompletedMatch(ctx context.Context, matchID int64, version string) (*RatingUpdate, error)
}

type matchCalculator interface {
	CalculateMatchStatistics(ctx context.Context, matchID int64, version string) (*models.MatchStatistics, error)
}

// MatchFinishedHandler applies a final score to the ratings and refreshes
// the match's statistics.
type MatchFinishedHandler struct {
	topic   string
	ratings matchRater
	engine  matchCalculator
	l       *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*MatchFinishedHandler)(nil)

func NewMatchFinishedHandler(topic string, ratings *RatingService, engine *StatisticsEngine) *MatchFinishedHandler {
	return &MatchFinishedHandler{topic: topic, ratings: ratings, engine: engine}
}

// SetLogger injects a structured logger.
func (h *MatchFinishedHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *MatchFinishedHandler) Topic() string { return h.topic }

func (h *MatchFinishedHandler) Handle(ctx context.Context, b []byte) error {
	var ev dto.MatchFinishedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode match finished: %w", err))
	}
	if ev.MatchID <= 0 {
		return pkgkafka.Permanent(fmt.Errorf("match finished: invalid match id %d", ev.MatchID))
	}

	upd, err := h.ratings.UpdateRatingsForCompletedMatch(ctx, ev.MatchID, ev.ModelVersion)
	if err != nil {
		return classify(err)
	}
	if upd == nil && h.l != nil {
		h.l.Warn("match finished event without stored final score",
			applogger.Int64("match_id", ev.MatchID),
			applogger.String("trace_id", pkgkafka.TraceID(ctx)))
	}

	if _, err := h.engine.CalculateMatchStatistics(ctx, ev.MatchID, ev.ModelVersion); err != nil {
		return classify(err)
	}
	return nil
}

// classify marks errors a retry cannot fix.
func classify(err error) error {
	if errors.Is(err, models.ErrMatchNotFound) || errors.Is(err, config.ErrUnknownModelVersion) {
		return pkgkafka.Permanent(err)
	}
	return err
}
