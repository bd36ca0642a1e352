package dto

import (
	"time"

	"TipsEngine/internal/domain/models"
)

type RatingDTO struct {
	Value         float64    `json:"value"`
	MatchesPlayed int        `json:"matches_played"`
	Confidence    string     `json:"confidence"`
	LastMatchAt   *time.Time `json:"last_match_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type RatingSetDTO struct {
	TeamID       int64     `json:"team_id"`
	ModelVersion string    `json:"model_version"`
	Elo          RatingDTO `json:"elo"`
	Attack       RatingDTO `json:"attack"`
	Defense      RatingDTO `json:"defense"`
}

func FromRatingSet(s models.RatingSet) RatingSetDTO {
	return RatingSetDTO{
		TeamID:       s.TeamID,
		ModelVersion: s.Version,
		Elo:          fromRating(s.Elo),
		Attack:       fromRating(s.Attack),
		Defense:      fromRating(s.Defense),
	}
}

func fromRating(r models.TeamRating) RatingDTO {
	out := RatingDTO{
		Value:         r.Value,
		MatchesPlayed: r.MatchesPlayed,
		Confidence:    string(r.Confidence),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.LastMatchAt != nil {
		at := r.LastMatchAt.UTC()
		out.LastMatchAt = &at
	}
	return out
}

// RatingUpdateDTO answers a rating update. Updated is false when the match
// has no final score yet or was applied by an earlier call; AlreadyApplied
// tells the two apart and the stored sets are returned.
type RatingUpdateDTO struct {
	MatchID        int64         `json:"match_id"`
	Updated        bool          `json:"updated"`
	AlreadyApplied bool          `json:"already_applied,omitempty"`
	Home           *RatingSetDTO `json:"home,omitempty"`
	Away           *RatingSetDTO `json:"away,omitempty"`
}

type RebuildReportDTO struct {
	ModelVersion string `json:"model_version"`
	Applied      int    `json:"applied"`
	Skipped      int    `json:"skipped"`
	DurationMS   int64  `json:"duration_ms"`
}
