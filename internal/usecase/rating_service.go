package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/service/lock"
	"TipsEngine/internal/services/rating"
	"TipsEngine/pkg/config"
	applogger "TipsEngine/pkg/logger"
)

// RatingUpdate holds both teams' sets after a match was applied. When
// AlreadyApplied is set the match had been applied before and the sets are
// the stored ones, untouched by this call.
type RatingUpdate struct {
	MatchID        int64
	Home           models.RatingSet
	Away           models.RatingSet
	AlreadyApplied bool
}

// RatingService applies final scores to team ratings. Every write happens
// under the lock of the match and of both teams, so one team never has two
// writers and one match is never applied twice.
type RatingService struct {
	stores   Stores
	calc     Calculators
	registry *config.ModelRegistry
	locker   domrepo.Locker
	metrics  domrepo.Metrics
	cache    domrepo.RatingInvalidator

	lockTimeout time.Duration
	l           *applogger.Logger
}

type RatingOption func(*RatingService)

func WithRatingLogger(l *applogger.Logger) RatingOption {
	return func(s *RatingService) { s.l = l }
}

// WithRatingCache evicts cached sets after every write.
func WithRatingCache(c domrepo.RatingInvalidator) RatingOption {
	return func(s *RatingService) { s.cache = c }
}

func WithRatingLockTimeout(d time.Duration) RatingOption {
	return func(s *RatingService) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewRatingService expects stores.Ratings to be the authoritative store, not
// a cache.
func NewRatingService(
	stores Stores,
	calc Calculators,
	registry *config.ModelRegistry,
	locker domrepo.Locker,
	metrics domrepo.Metrics,
	opts ...RatingOption,
) *RatingService {
	s := &RatingService{
		stores:      stores,
		calc:        calc,
		registry:    registry,
		locker:      locker,
		metrics:     metrics,
		lockTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRatings returns a team's set under version, creating defaults on first
// access.
func (s *RatingService) GetRatings(ctx context.Context, teamID int64, version string) (models.RatingSet, error) {
	cfg, err := s.registry.Resolve(version)
	if err != nil {
		return models.RatingSet{}, err
	}
	return s.stores.Ratings.GetRatings(ctx, teamID, cfg.Version, rating.Defaults(teamID, cfg))
}

// UpdateRatingsForCompletedMatch applies a match's final score to both
// teams. It returns nil without error when the match has no final score.
// Calling it again for the same match and version changes nothing.
func (s *RatingService) UpdateRatingsForCompletedMatch(ctx context.Context, matchID int64, version string) (*RatingUpdate, error) {
	cfg, err := s.registry.Resolve(version)
	if err != nil {
		return nil, err
	}
	match, err := s.stores.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasFinalScore() {
		if s.l != nil {
			s.l.Debug("match has no final score, ratings unchanged", applogger.Int64("match_id", matchID))
		}
		return nil, nil
	}

	return s.applyLocked(ctx, *match, cfg)
}

// apply runs one update. The caller holds the match lock and both team
// locks.
func (s *RatingService) apply(ctx context.Context, match models.Match, cfg config.ModelConfig) (*RatingUpdate, error) {
	start := time.Now()
	done, err := s.stores.Ratings.MatchApplied(ctx, match.ID, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("applied check match %d: %w", match.ID, err)
	}
	if done {
		return s.stored(ctx, match, cfg)
	}

	home, err := s.stores.Ratings.GetRatings(ctx, match.HomeTeamID, cfg.Version, rating.Defaults(match.HomeTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("home ratings: %w", err)
	}
	away, err := s.stores.Ratings.GetRatings(ctx, match.AwayTeamID, cfg.Version, rating.Defaults(match.AwayTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("away ratings: %w", err)
	}

	xg, err := s.matchXG(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	newHome, newAway := s.calc.Ratings.Update(home, away, match, xg, cfg)
	err = s.stores.Ratings.SaveMatchRatings(ctx, match.ID, cfg.Version, newHome, newAway)
	if errors.Is(err, models.ErrAlreadyApplied) {
		return s.stored(ctx, match, cfg)
	}
	if err != nil {
		s.metrics.RecordError("save_ratings")
		return nil, fmt.Errorf("save ratings match %d: %w", match.ID, err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateRatings(ctx, newHome, newAway); err != nil {
			s.metrics.RecordError("cache")
			if s.l != nil {
				s.l.Warn("rating cache invalidation failed", applogger.Int64("match_id", match.ID), applogger.Error(err))
			}
		}
	}
	s.metrics.RecordRatingUpdate(cfg.Version)
	s.metrics.RecordLatency("update_ratings", time.Since(start).Seconds())

	changes := append(rating.Changes(home, newHome, match.ID), rating.Changes(away, newAway, match.ID)...)
	if err := s.stores.History.RecordRatingChanges(ctx, changes); err != nil {
		s.metrics.RecordError("history")
		if s.l != nil {
			s.l.Warn("record rating changes failed", applogger.Int64("match_id", match.ID), applogger.Error(err))
		}
	}
	if err := s.stores.Events.PublishRatingsUpdated(ctx, match.ID, newHome, newAway); err != nil {
		s.metrics.RecordError("publish")
		if s.l != nil {
			s.l.Warn("publish ratings failed", applogger.Int64("match_id", match.ID), applogger.Error(err))
		}
	}

	if s.l != nil {
		s.l.Info("ratings updated",
			applogger.Int64("match_id", match.ID),
			applogger.String("version", cfg.Version),
			applogger.Time("kickoff", match.KickoffAt),
			applogger.Float64("home_elo", newHome.Elo.Value),
			applogger.Float64("away_elo", newAway.Elo.Value),
			applogger.Bool("xg", xg != nil),
		)
	}
	return &RatingUpdate{MatchID: match.ID, Home: newHome, Away: newAway}, nil
}

// stored returns both teams' current sets for a match that was applied
// before.
func (s *RatingService) stored(ctx context.Context, match models.Match, cfg config.ModelConfig) (*RatingUpdate, error) {
	home, err := s.stores.Ratings.GetRatings(ctx, match.HomeTeamID, cfg.Version, rating.Defaults(match.HomeTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("home ratings: %w", err)
	}
	away, err := s.stores.Ratings.GetRatings(ctx, match.AwayTeamID, cfg.Version, rating.Defaults(match.AwayTeamID, cfg))
	if err != nil {
		return nil, fmt.Errorf("away ratings: %w", err)
	}
	if s.l != nil {
		s.l.Info("match already applied, ratings unchanged",
			applogger.Int64("match_id", match.ID),
			applogger.String("version", cfg.Version),
		)
	}
	return &RatingUpdate{MatchID: match.ID, Home: home, Away: away, AlreadyApplied: true}, nil
}

// matchXG reads the xStats record. A missing record or one without both
// xG figures yields nil and the update falls back to goals.
func (s *RatingService) matchXG(ctx context.Context, matchID int64) (*models.MatchXG, error) {
	aux, err := s.stores.Matches.AuxData(ctx, matchID, models.AuxXStats)
	if err != nil {
		return nil, fmt.Errorf("xstats: %w", err)
	}
	x, ok := aux.(models.XStatsData)
	if !ok {
		return nil, nil
	}
	if xg, ok := x.MatchXG(); ok {
		return &xg, nil
	}
	return nil, nil
}

// RebuildReport summarises a chronological rating backfill.
type RebuildReport struct {
	Version  string
	Applied  int
	Skipped  int
	Duration time.Duration
}

// RebuildRatings replays finished matches in kickoff order into an empty
// version. It refuses a version that already has ratings, since replaying
// on top of them would count matches twice.
func (s *RatingService) RebuildRatings(ctx context.Context, version string, limit int) (RebuildReport, error) {
	start := time.Now()
	cfg, err := s.registry.Resolve(version)
	if err != nil {
		return RebuildReport{}, err
	}
	report := RebuildReport{Version: cfg.Version}

	n, err := s.stores.Ratings.CountRatings(ctx, cfg.Version)
	if err != nil {
		return report, fmt.Errorf("count ratings: %w", err)
	}
	if n > 0 {
		return report, fmt.Errorf("%w: %s has %d rows", models.ErrVersionNotEmpty, cfg.Version, n)
	}

	matches, err := s.stores.Matches.FinishedMatches(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("finished matches: %w", err)
	}
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !m.HasFinalScore() {
			report.Skipped++
			continue
		}
		upd, err := s.applyLocked(ctx, m, cfg)
		if err != nil {
			return report, fmt.Errorf("rebuild at match %d: %w", m.ID, err)
		}
		if upd.AlreadyApplied {
			report.Skipped++
			continue
		}
		report.Applied++
	}
	report.Duration = time.Since(start)

	if s.l != nil {
		s.l.Info("ratings rebuilt",
			applogger.String("version", cfg.Version),
			applogger.Int("applied", report.Applied),
			applogger.Int("skipped", report.Skipped),
			applogger.Duration("duration_ms", report.Duration),
		)
	}
	return report, nil
}

func (s *RatingService) applyLocked(ctx context.Context, m models.Match, cfg config.ModelConfig) (*RatingUpdate, error) {
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := lock.LockAll(lctx, s.locker,
		MatchLockKey(m.ID),
		TeamLockKey(cfg.Version, m.HomeTeamID),
		TeamLockKey(cfg.Version, m.AwayTeamID))
	cancel()
	if err != nil {
		s.metrics.RecordError("lock")
		return nil, err
	}
	defer unlock()
	return s.apply(ctx, m, cfg)
}
