package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"TipsEngine/internal/domain/models"
	applogger "TipsEngine/pkg/logger"
	"TipsEngine/pkg/queue"
)

// RecalculateJobType tags queued batch recalculations.
const RecalculateJobType = "recalculate_matches"

type batchCalculator interface {
	RecalculateMatches(ctx context.Context, matchIDs []int64, version string) (BatchReport, error)
}

// RecalculateJob runs a queued batch. Per-match failures are reported in
// the log and not retried; only a failure of the whole batch is.
type RecalculateJob struct {
	engine batchCalculator
	l      *applogger.Logger
}

var _ queue.Job = (*RecalculateJob)(nil)

func NewRecalculateJob(engine *StatisticsEngine, l *applogger.Logger) *RecalculateJob {
	return &RecalculateJob{engine: engine, l: l}
}

func (j *RecalculateJob) Name() string { return "recalculate" }

func (j *RecalculateJob) Type() string { return RecalculateJobType }

func (j *RecalculateJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.ParsePayload[models.RecalculateRequest](payload)
	if err != nil {
		return err
	}
	if len(req.MatchIDs) == 0 {
		return fmt.Errorf("recalculate: no match ids")
	}

	report, err := j.engine.RecalculateMatches(ctx, req.MatchIDs, req.Version)
	if err != nil {
		return err
	}
	if j.l != nil {
		j.l.Info("queued recalculation done",
			applogger.Any("match_ids", req.MatchIDs),
			applogger.Int("succeeded", report.Succeeded),
			applogger.Int("failed", report.Failed))
		for _, f := range report.Failures {
			j.l.Warn("queued recalculation failed",
				applogger.Int64("match_id", f.MatchID),
				applogger.Error(f.Err))
		}
	}
	return nil
}
