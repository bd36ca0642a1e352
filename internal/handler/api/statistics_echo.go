package api

import (
	"context"
	"errors"

	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/dto"
	"TipsEngine/internal/service/ratelimit"
	"TipsEngine/internal/usecase"
	"TipsEngine/pkg/config"
	xhttp "TipsEngine/pkg/http"
	xlogger "TipsEngine/pkg/logger"
	"TipsEngine/pkg/queue"

	"github.com/labstack/echo/v4"
)

// StatisticsCalculator computes match statistics on demand.
type StatisticsCalculator interface {
	CalculateMatchStatistics(ctx context.Context, matchID int64, version string) (*models.MatchStatistics, error)
	RecalculateMatches(ctx context.Context, matchIDs []int64, version string) (usecase.BatchReport, error)
}

// RatingManager reads and updates team ratings.
type RatingManager interface {
	GetRatings(ctx context.Context, teamID int64, version string) (models.RatingSet, error)
	UpdateRatingsForCompletedMatch(ctx context.Context, matchID int64, version string) (*usecase.RatingUpdate, error)
	RebuildRatings(ctx context.Context, version string, limit int) (usecase.RebuildReport, error)
}

// StatisticsEchoHandler serves the engine's admin and read API.
type StatisticsEchoHandler struct {
	logger  *xlogger.Logger
	engine  StatisticsCalculator
	ratings RatingManager
	stats   domrepo.StatisticsRepository
	queue   queue.Publisher
	limiter *ratelimit.Limiter
}

func NewStatisticsEchoHandler(
	logger *xlogger.Logger,
	engine StatisticsCalculator,
	ratings RatingManager,
	stats domrepo.StatisticsRepository,
) *StatisticsEchoHandler {
	return &StatisticsEchoHandler{logger: logger, engine: engine, ratings: ratings, stats: stats}
}

// SetQueue enables asynchronous batch recalculation.
func (h *StatisticsEchoHandler) SetQueue(q queue.Publisher) { h.queue = q }

// SetLimiter rate-limits the write endpoints.
func (h *StatisticsEchoHandler) SetLimiter(l *ratelimit.Limiter) { h.limiter = l }

func (h *StatisticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	var writes []echo.MiddlewareFunc
	if h.limiter != nil {
		writes = append(writes, h.limiter.Middleware())
	}

	g := e.Group("/api")
	g.GET("/ratings/:team", h.GetRatings)
	g.GET("/matches/:id/statistics", h.GetStatistics)
	g.POST("/matches/:id/statistics", h.CalculateStatistics, writes...)
	g.POST("/matches/:id/ratings", h.UpdateRatings, writes...)
	g.POST("/recalculate", h.Recalculate, writes...)
	g.POST("/ratings/rebuild", h.RebuildRatings, writes...)
}

func (h *StatisticsEchoHandler) GetRatings(c echo.Context) error {
	req := &models.TeamRatingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	set, err := h.ratings.GetRatings(c.Request().Context(), req.TeamID, req.Version)
	if err != nil {
		return h.fail(c, "get ratings", err)
	}
	return xhttp.SuccessResponse(c, dto.FromRatingSet(set))
}

func (h *StatisticsEchoHandler) GetStatistics(c echo.Context) error {
	req := &models.MatchStatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.stats.GetStatistics(c.Request().Context(), req.MatchID)
	if err != nil {
		return h.fail(c, "get statistics", err)
	}
	return xhttp.SuccessResponse(c, dto.FromStatistics(st))
}

func (h *StatisticsEchoHandler) CalculateStatistics(c echo.Context) error {
	req := &models.MatchStatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.engine.CalculateMatchStatistics(c.Request().Context(), req.MatchID, req.Version)
	if err != nil {
		return h.fail(c, "calculate statistics", err)
	}
	return xhttp.SuccessResponse(c, dto.FromStatistics(st))
}

func (h *StatisticsEchoHandler) UpdateRatings(c echo.Context) error {
	req := &models.MatchStatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upd, err := h.ratings.UpdateRatingsForCompletedMatch(c.Request().Context(), req.MatchID, req.Version)
	if err != nil {
		return h.fail(c, "update ratings", err)
	}
	res := dto.RatingUpdateDTO{MatchID: req.MatchID}
	if upd != nil {
		home, away := dto.FromRatingSet(upd.Home), dto.FromRatingSet(upd.Away)
		res.Home, res.Away = &home, &away
		res.Updated, res.AlreadyApplied = !upd.AlreadyApplied, upd.AlreadyApplied
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StatisticsEchoHandler) Recalculate(c echo.Context) error {
	req := &models.RecalculateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	if req.Async {
		if h.queue == nil {
			return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("asynchronous recalculation is disabled"))
		}
		id, err := h.queue.Enqueue(ctx, usecase.RecalculateJobType, models.RecalculateRequest{MatchIDs: req.MatchIDs, Version: req.Version})
		if err != nil {
			return h.fail(c, "enqueue recalculation", err)
		}
		return xhttp.AcceptedResponse(c, dto.JobAcceptedDTO{JobID: id, Enqueued: len(req.MatchIDs)})
	}

	report, err := h.engine.RecalculateMatches(ctx, req.MatchIDs, req.Version)
	if err != nil {
		return h.fail(c, "recalculate", err)
	}
	res := dto.BatchReportDTO{Requested: report.Requested, Succeeded: report.Succeeded, Failed: report.Failed}
	for _, f := range report.Failures {
		res.Failures = append(res.Failures, dto.BatchFailure{MatchID: f.MatchID, Error: f.Err.Error()})
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StatisticsEchoHandler) RebuildRatings(c echo.Context) error {
	req := &models.RebuildRatingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report, err := h.ratings.RebuildRatings(c.Request().Context(), req.Version, req.Limit)
	if err != nil {
		return h.fail(c, "rebuild ratings", err)
	}
	return xhttp.SuccessResponse(c, dto.RebuildReportDTO{
		ModelVersion: report.Version,
		Applied:      report.Applied,
		Skipped:      report.Skipped,
		DurationMS:   report.Duration.Milliseconds(),
	})
}

func (h *StatisticsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 && h.logger != nil {
		h.logger.Error(op+" failed", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrMatchNotFound):
		return xhttp.NotFoundErrorf("match not found").WithError(err)
	case errors.Is(err, models.ErrStatsNotFound):
		return xhttp.NotFoundErrorf("statistics not calculated yet").WithError(err)
	case errors.Is(err, config.ErrUnknownModelVersion):
		return xhttp.BadRequestErrorf("unknown model version").WithError(err)
	case errors.Is(err, models.ErrVersionNotEmpty):
		return xhttp.ConflictErrorf("ratings already exist for this version").WithError(err)
	case errors.Is(err, models.ErrLockNotAcquired), errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableErrorf("resource busy, retry later").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
