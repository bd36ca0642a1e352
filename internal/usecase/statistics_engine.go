package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/services/features"
	"TipsEngine/internal/services/rating"
	"TipsEngine/pkg/config"
	applogger "TipsEngine/pkg/logger"
)

// StatisticsEngine assembles the statistical result of a match from the
// stored ratings, odds and recent history, and persists it.
type StatisticsEngine struct {
	stores   Stores
	calc     Calculators
	registry *config.ModelRegistry
	locker   domrepo.Locker
	metrics  domrepo.Metrics

	lockTimeout time.Duration
	workers     int
	now         func() time.Time
	l           *applogger.Logger
}

type EngineOption func(*StatisticsEngine)

func WithEngineLogger(l *applogger.Logger) EngineOption {
	return func(e *StatisticsEngine) { e.l = l }
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *StatisticsEngine) { e.now = now }
}

// WithBatchWorkers sets how many matches a batch recalculates at once.
func WithBatchWorkers(n int) EngineOption {
	return func(e *StatisticsEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLockTimeout bounds the wait for a busy match.
func WithLockTimeout(d time.Duration) EngineOption {
	return func(e *StatisticsEngine) { e.lockTimeout = d }
}

func NewStatisticsEngine(
	stores Stores,
	calc Calculators,
	registry *config.ModelRegistry,
	locker domrepo.Locker,
	metrics domrepo.Metrics,
	opts ...EngineOption,
) *StatisticsEngine {
	e := &StatisticsEngine{
		stores:      stores,
		calc:        calc,
		registry:    registry,
		locker:      locker,
		metrics:     metrics,
		lockTimeout: 10 * time.Second,
		workers:     1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculateMatchStatistics computes and stores the result for one match.
// Only a missing match or a storage failure is an error; absent inputs
// lower the data quality instead.
func (e *StatisticsEngine) CalculateMatchStatistics(ctx context.Context, matchID int64, version string) (*models.MatchStatistics, error) {
	start := time.Now()
	cfg, err := e.registry.Resolve(version)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lock(ctx, MatchLockKey(matchID))
	if err != nil {
		e.metrics.RecordError("lock")
		return nil, err
	}
	defer unlock()

	st, err := e.calculate(ctx, matchID, cfg)
	if err != nil {
		if errors.Is(err, models.ErrMatchNotFound) {
			e.logWarn("match not found", applogger.Int64("match_id", matchID))
		} else {
			e.metrics.RecordError("calculate")
			e.logError("calculate statistics failed", applogger.Int64("match_id", matchID), applogger.Error(err))
		}
		return nil, err
	}

	if err := e.stores.Statistics.UpsertStatistics(ctx, st); err != nil {
		e.metrics.RecordError("save_statistics")
		return nil, fmt.Errorf("save statistics match %d: %w", matchID, err)
	}

	e.metrics.RecordCalculation(cfg.Version, st.DataQuality)
	if st.EV.BestValue != nil {
		e.metrics.RecordValueBet(*st.EV.BestValue)
	}
	e.metrics.RecordLatency("calculate", time.Since(start).Seconds())

	if err := e.stores.History.RecordCalculation(ctx, st); err != nil {
		e.metrics.RecordError("history")
		e.logWarn("record calculation failed", applogger.Int64("match_id", matchID), applogger.Error(err))
	}
	if err := e.stores.Events.PublishStatistics(ctx, st); err != nil {
		e.metrics.RecordError("publish")
		e.logWarn("publish statistics failed", applogger.Int64("match_id", matchID), applogger.Error(err))
	}

	if e.l != nil {
		e.l.Info("statistics calculated",
			applogger.Int64("match_id", matchID),
			applogger.String("version", cfg.Version),
			applogger.String("quality", string(st.DataQuality)),
			applogger.Strings("missing", st.MissingInputs),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return st, nil
}

func (e *StatisticsEngine) calculate(ctx context.Context, matchID int64, cfg config.ModelConfig) (*models.MatchStatistics, error) {
	match, err := e.stores.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	home, err := e.stores.Ratings.GetRatings(ctx, match.HomeTeamID, cfg.Version, rating.Defaults(match.HomeTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("home ratings: %w", err)
	}
	away, err := e.stores.Ratings.GetRatings(ctx, match.AwayTeamID, cfg.Version, rating.Defaults(match.AwayTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("away ratings: %w", err)
	}

	pred := e.calc.Scoreline.Predict(home, away, cfg)
	p := pred.Probabilities
	st := &models.MatchStatistics{
		MatchID:       match.ID,
		ModelVersion:  cfg.Version,
		Probabilities: p,
		Markets:       pred.Markets,
		Fair:          models.FairProbabilities{Home: p.HomeWin, Draw: p.Draw, Away: p.AwayWin},
		HomeElo:       home.Elo.Value,
		AwayElo:       away.Elo.Value,
		CalculatedAt:  e.now().UTC().Truncate(time.Second),
	}

	if err := e.applyOdds(ctx, st, cfg); err != nil {
		return nil, err
	}

	if st.HomeForm, err = e.teamForm(ctx, match.HomeTeamID, match.KickoffAt, cfg); err != nil {
		return nil, err
	}
	if st.AwayForm, err = e.teamForm(ctx, match.AwayTeamID, match.KickoffAt, cfg); err != nil {
		return nil, err
	}

	if st.HomeRestDays, err = e.restDays(ctx, match.HomeTeamID, match.KickoffAt, cfg); err != nil {
		return nil, err
	}
	if st.AwayRestDays, err = e.restDays(ctx, match.AwayTeamID, match.KickoffAt, cfg); err != nil {
		return nil, err
	}

	st.ImportanceScore, err = e.calc.Importance.Score(ctx, *match, cfg)
	if err != nil {
		e.logDebug("importance unavailable", applogger.Int64("match_id", matchID), applogger.Error(err))
		st.ImportanceScore = nil
	}

	st.MissingInputs = features.MissingInputs(features.Inputs{
		HomeMatches:  home.MatchesPlayed(),
		AwayMatches:  away.MatchesPlayed(),
		HasOdds:      st.Odds != nil,
		HomeForm:     st.HomeForm.EMAForm,
		AwayForm:     st.AwayForm.EMAForm,
		HomeRestDays: st.HomeRestDays,
		AwayRestDays: st.AwayRestDays,
	})
	st.DataQuality = models.QualityFor(len(st.MissingInputs))
	if len(st.MissingInputs) > 0 {
		e.logDebug("calculation inputs missing",
			applogger.Int64("match_id", matchID),
			applogger.Strings("missing", st.MissingInputs))
	}
	return st, nil
}

// applyOdds fills the value fields from the current quote. Without a usable
// quote the model probabilities stand in as fair and EV stays zero.
func (e *StatisticsEngine) applyOdds(ctx context.Context, st *models.MatchStatistics, cfg config.ModelConfig) error {
	odds, err := e.stores.Matches.CurrentOdds(ctx, st.MatchID)
	if err != nil {
		return fmt.Errorf("odds: %w", err)
	}
	if odds == nil {
		return nil
	}
	va, err := e.calc.Value.Analyze(st.Probabilities, *odds, cfg)
	if err != nil {
		e.logInfo("ignoring odds quote",
			applogger.Int64("match_id", st.MatchID),
			applogger.String("source", odds.Source),
			applogger.Error(err))
		return nil
	}
	quote := va.Odds
	st.Odds = &quote
	st.Fair = va.Fair
	st.EV = va.EV
	st.Stakes = va.Stakes
	return nil
}

func (e *StatisticsEngine) teamForm(ctx context.Context, teamID int64, kickoff time.Time, cfg config.ModelConfig) (models.FormMetrics, error) {
	recent, err := e.stores.Matches.RecentMatches(ctx, teamID, kickoff, cfg.FormLookback)
	if err != nil {
		return models.FormMetrics{}, fmt.Errorf("recent matches team %d: %w", teamID, err)
	}
	return e.calc.Form.Analyze(recent, cfg), nil
}

func (e *StatisticsEngine) restDays(ctx context.Context, teamID int64, kickoff time.Time, cfg config.ModelConfig) (*int, error) {
	prev, err := e.stores.Matches.PreviousMatchAt(ctx, teamID, kickoff)
	if err != nil {
		return nil, fmt.Errorf("previous match team %d: %w", teamID, err)
	}
	return features.RestDays(prev, kickoff, cfg.RestDaysCap), nil
}

func (e *StatisticsEngine) lock(ctx context.Context, key string) (func(), error) {
	if e.lockTimeout <= 0 {
		return e.locker.Lock(ctx, key)
	}
	lctx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()
	return e.locker.Lock(lctx, key)
}

func (e *StatisticsEngine) logDebug(msg string, fields ...applogger.Field) {
	if e.l != nil {
		e.l.Debug(msg, fields...)
	}
}

func (e *StatisticsEngine) logInfo(msg string, fields ...applogger.Field) {
	if e.l != nil {
		e.l.Info(msg, fields...)
	}
}

func (e *StatisticsEngine) logWarn(msg string, fields ...applogger.Field) {
	if e.l != nil {
		e.l.Warn(msg, fields...)
	}
}

func (e *StatisticsEngine) logError(msg string, fields ...applogger.Field) {
	if e.l != nil {
		e.l.Error(msg, fields...)
	}
}
