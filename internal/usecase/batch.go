package usecase

import (
	"context"
	"sync"
	"time"

	applogger "TipsEngine/pkg/logger"
)

// BatchFailure is one match a batch could not recalculate.
type BatchFailure struct {
	MatchID int64
	Err     error
}

// BatchReport summarises a batch recalculation.
type BatchReport struct {
	Requested int
	Succeeded int
	Failed    int
	Failures  []BatchFailure
}

// RecalculateMatches recalculates every listed match. A failing match is
// counted in the report and never stops the batch. The version is checked
// up front so a bad version fails the call as a whole.
func (e *StatisticsEngine) RecalculateMatches(ctx context.Context, matchIDs []int64, version string) (BatchReport, error) {
	report := BatchReport{Requested: len(matchIDs)}
	if _, err := e.registry.Resolve(version); err != nil {
		return report, err
	}
	start := time.Now()

	errs := make([]error, len(matchIDs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(matchIDs) {
		workers = len(matchIDs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				_, errs[i] = e.CalculateMatchStatistics(ctx, matchIDs[i], version)
			}
		}()
	}
	for i := range matchIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, BatchFailure{MatchID: matchIDs[i], Err: err})
			continue
		}
		report.Succeeded++
	}
	if report.Failed > 0 {
		e.metrics.RecordError("batch_match")
	}
	e.metrics.RecordLatency("batch", time.Since(start).Seconds())

	if e.l != nil {
		e.l.Info("batch recalculated",
			applogger.Int("requested", report.Requested),
			applogger.Int("succeeded", report.Succeeded),
			applogger.Int("failed", report.Failed),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return report, nil
}
