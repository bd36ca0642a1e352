package models

// Requests for the admin HTTP endpoints. Defined in domain for reuse by the
// queue job payloads.

type TeamRatingsRequest struct {
	TeamID  int64  `param:"team" json:"team_id" validate:"required,gt=0"`
	Version string `query:"version" json:"version"`
}

type MatchStatisticsRequest struct {
	MatchID int64  `param:"id" json:"match_id" validate:"required,gt=0"`
	Version string `query:"version" json:"version"`
}

type RecalculateRequest struct {
	MatchIDs []int64 `json:"match_ids" validate:"required,min=1,max=500,dive,gt=0"`
	Version  string  `json:"version"`
	Async    bool    `json:"async"`
}

type RebuildRatingsRequest struct {
	Version string `json:"version" validate:"required"`
	Limit   int    `json:"limit" default:"0" validate:"gte=0"`
}
