package repository

import (
	"context"
	"fmt"
	"time"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	pkgch "TipsEngine/pkg/clickhouse"
	applogger "TipsEngine/pkg/logger"
)

const (
	ratingChangesTable = "rating_changes"
	statisticsLogTable = "statistics_log"
)

type batchInserter interface {
	InitSchema(ctx context.Context, stmts []string) error
	InsertBatch(ctx context.Context, table string, rows [][]any) error
	Close() error
}

// CHRatingHistory appends rating transitions and calculation snapshots to
// ClickHouse for offline analysis. Nothing on the request path reads it.
type CHRatingHistory struct {
	ch batchInserter
	l  *applogger.Logger
}

var _ domrepo.RatingHistory = (*CHRatingHistory)(nil)

func NewCHRatingHistory(ch *pkgch.Client) *CHRatingHistory {
	return &CHRatingHistory{ch: ch}
}

// SetLogger injects a structured logger.
func (h *CHRatingHistory) SetLogger(l *applogger.Logger) { h.l = l }

// HistorySchema is the ClickHouse DDL for the analytical tables.
func HistorySchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + ratingChangesTable + ` (
			team_id        Int64,
			match_id       Int64,
			rating_type    LowCardinality(String),
			model_version  LowCardinality(String),
			value_before   Float64,
			value_after    Float64,
			delta          Float64,
			matches_played UInt32,
			confidence     LowCardinality(String),
			recorded_at    DateTime
		) ENGINE = MergeTree
		ORDER BY (model_version, team_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS ` + statisticsLogTable + ` (
			match_id         Int64,
			model_version    LowCardinality(String),
			home_win_prob    Float64,
			draw_prob        Float64,
			away_win_prob    Float64,
			expected_home    Float64,
			expected_away    Float64,
			over25_prob      Float64,
			btts_prob        Float64,
			home_elo         Float64,
			away_elo         Float64,
			has_odds         UInt8,
			bookmaker_margin Float64,
			best_value       LowCardinality(String),
			data_quality     LowCardinality(String),
			missing_inputs   Array(String),
			calculated_at    DateTime
		) ENGINE = MergeTree
		ORDER BY (model_version, match_id, calculated_at)`,
	}
}

// Init creates the analytical tables when missing.
func (h *CHRatingHistory) Init(ctx context.Context) error {
	return h.ch.InitSchema(ctx, HistorySchema())
}

func (h *CHRatingHistory) RecordRatingChanges(ctx context.Context, changes []models.RatingChange) error {
	if len(changes) == 0 {
		return nil
	}
	start := time.Now()
	rows := make([][]any, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, ratingChangeRow(c))
	}
	if err := h.ch.InsertBatch(ctx, ratingChangesTable, rows); err != nil {
		if h.l != nil {
			h.l.Error("clickhouse rating_changes insert error",
				applogger.Int("rows", len(rows)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record rating changes: %w", err)
	}
	if h.l != nil {
		h.l.Debug("clickhouse rating_changes insert ok",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (h *CHRatingHistory) RecordCalculation(ctx context.Context, s *models.MatchStatistics) error {
	if s == nil {
		return nil
	}
	if err := h.ch.InsertBatch(ctx, statisticsLogTable, [][]any{statisticsLogRow(s)}); err != nil {
		if h.l != nil {
			h.l.Error("clickhouse statistics_log insert error",
				applogger.Int64("match_id", s.MatchID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record calculation %d: %w", s.MatchID, err)
	}
	return nil
}

func (h *CHRatingHistory) Close() error { return h.ch.Close() }

func ratingChangeRow(c models.RatingChange) []any {
	return []any{
		c.TeamID,
		c.MatchID,
		string(c.Kind),
		c.Version,
		c.Before,
		c.After,
		c.After - c.Before,
		uint32(c.Matches),
		string(c.Confidence),
		c.At.UTC(),
	}
}

func statisticsLogRow(s *models.MatchStatistics) []any {
	var hasOdds uint8
	if s.Odds != nil {
		hasOdds = 1
	}
	best := ""
	if s.EV.BestValue != nil {
		best = string(*s.EV.BestValue)
	}
	missing := s.MissingInputs
	if missing == nil {
		missing = []string{}
	}
	return []any{
		s.MatchID,
		s.ModelVersion,
		s.Probabilities.HomeWin,
		s.Probabilities.Draw,
		s.Probabilities.AwayWin,
		s.Probabilities.ExpectedHomeGoals,
		s.Probabilities.ExpectedAwayGoals,
		s.Markets.Over25,
		s.Markets.BTTSYes,
		s.HomeElo,
		s.AwayElo,
		hasOdds,
		s.Fair.Margin,
		best,
		string(s.DataQuality),
		missing,
		s.CalculatedAt.UTC(),
	}
}
