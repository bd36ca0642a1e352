package dto

import "time"

const (
	EventStatisticsCalculated = "statistics.calculated"
	EventRatingsUpdated       = "ratings.updated"
)

// Envelope wraps every event the engine publishes.
type Envelope struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	TraceID    string      `json:"trace_id,omitempty"`
	Data       interface{} `json:"data"`
}

type RatingsUpdatedData struct {
	MatchID      int64          `json:"match_id"`
	ModelVersion string         `json:"model_version"`
	Teams        []RatingSetDTO `json:"teams"`
}

// MatchFinishedEvent is consumed from the ingestion side once a final score
// is recorded. Goals are informational; the stored match is authoritative.
type MatchFinishedEvent struct {
	MatchID      int64  `json:"match_id" validate:"required,gt=0"`
	HomeGoals    *int   `json:"home_goals"`
	AwayGoals    *int   `json:"away_goals"`
	ModelVersion string `json:"model_version"`
}

// BatchFailure is one failed match of a batch recalculation.
type BatchFailure struct {
	MatchID int64  `json:"match_id"`
	Error   string `json:"error"`
}

type BatchReportDTO struct {
	Requested int            `json:"requested"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// JobAcceptedDTO answers an asynchronous request.
type JobAcceptedDTO struct {
	JobID    string `json:"job_id"`
	Enqueued int    `json:"enqueued"`
}
