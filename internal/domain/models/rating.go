package models

import "time"

// RatingKind names one of the three ratings kept per team and version.
type RatingKind string

const (
	RatingElo     RatingKind = "elo"
	RatingAttack  RatingKind = "attack"
	RatingDefense RatingKind = "defense"
)

// RatingKinds lists every kind in storage order.
func RatingKinds() []RatingKind {
	return []RatingKind{RatingElo, RatingAttack, RatingDefense}
}

// ConfidenceTier is derived from the number of contributing matches.
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// TierFor maps a match count to its tier: <5 low, 5-14 medium, >=15 high.
func TierFor(matches int) ConfidenceTier {
	switch {
	case matches >= 15:
		return ConfidenceHigh
	case matches >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// TeamRating is one stored rating row.
type TeamRating struct {
	TeamID        int64
	Kind          RatingKind
	Version       string
	Value         float64
	MatchesPlayed int
	Confidence    ConfidenceTier
	LastMatchAt   *time.Time
	UpdatedAt     time.Time
}

// RatingSet is the elo/attack/defense triple of one team under one version.
type RatingSet struct {
	TeamID  int64
	Version string
	Elo     TeamRating
	Attack  TeamRating
	Defense TeamRating
}

// MatchesPlayed is the contributing match count, tracked on the Elo row.
func (s RatingSet) MatchesPlayed() int { return s.Elo.MatchesPlayed }

// Rows returns the set as storable rows.
func (s RatingSet) Rows() []TeamRating {
	return []TeamRating{s.Elo, s.Attack, s.Defense}
}

// Get returns the row for kind.
func (s RatingSet) Get(kind RatingKind) TeamRating {
	switch kind {
	case RatingAttack:
		return s.Attack
	case RatingDefense:
		return s.Defense
	default:
		return s.Elo
	}
}

// Set replaces the row matching r.Kind.
func (s *RatingSet) Set(r TeamRating) {
	switch r.Kind {
	case RatingElo:
		s.Elo = r
	case RatingAttack:
		s.Attack = r
	case RatingDefense:
		s.Defense = r
	}
}

// RatingChange records one before/after transition caused by a match.
type RatingChange struct {
	TeamID     int64
	MatchID    int64
	Kind       RatingKind
	Version    string
	Before     float64
	After      float64
	Matches    int
	Confidence ConfidenceTier
	At         time.Time
}
