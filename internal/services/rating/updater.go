package rating

import (
	"math"
	"time"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/domain/service"
	"TipsEngine/pkg/config"
)

// Updater applies the Elo and attack/defense update rules.
type Updater struct {
	now func() time.Time
}

var _ service.RatingUpdater = (*Updater)(nil)

func NewUpdater() *Updater {
	return &Updater{now: time.Now}
}

// Defaults returns a fresh rating set for a team that has no stored rows.
func Defaults(teamID int64, cfg config.ModelConfig) models.RatingSet {
	row := func(kind models.RatingKind, v float64) models.TeamRating {
		return models.TeamRating{
			TeamID:     teamID,
			Kind:       kind,
			Version:    cfg.Version,
			Value:      v,
			Confidence: models.ConfidenceLow,
		}
	}
	return models.RatingSet{
		TeamID:  teamID,
		Version: cfg.Version,
		Elo:     row(models.RatingElo, cfg.InitialRating),
		Attack:  row(models.RatingAttack, 1.0),
		Defense: row(models.RatingDefense, 1.0),
	}
}

// ExpectedScore is the home side's expected score given both Elo ratings.
func ExpectedScore(home, away float64) float64 {
	return 1 / (1 + math.Pow(10, (away-home)/400))
}

// Update returns both teams' ratings after match. The match must carry a
// final score; xg is optional and replaces goals in the attack/defense step.
func (u *Updater) Update(home, away models.RatingSet, match models.Match, xg *models.MatchXG, cfg config.ModelConfig) (models.RatingSet, models.RatingSet) {
	hg, ag := *match.HomeGoals, *match.AwayGoals

	expHome := ExpectedScore(home.Elo.Value, away.Elo.Value)
	expAway := 1 - expHome

	actHome := 0.5
	switch {
	case hg > ag:
		actHome = 1
	case hg < ag:
		actHome = 0
	}
	actAway := 1 - actHome

	margin := math.Abs(float64(hg - ag))
	k := cfg.KFactor * (1 + margin*cfg.MarginMultiplier)

	homeFor, awayFor := float64(hg), float64(ag)
	if xg != nil {
		homeFor, awayFor = xg.Home, xg.Away
	}

	at := match.KickoffAt
	if at.IsZero() {
		at = u.now()
	}

	newHome := u.apply(home, home.Elo.Value+k*cfg.HomeKFactor*(actHome-expHome), homeFor, awayFor, at, cfg)
	newAway := u.apply(away, away.Elo.Value+k*cfg.AwayKFactor*(actAway-expAway), awayFor, homeFor, at, cfg)
	return newHome, newAway
}

func (u *Updater) apply(set models.RatingSet, elo, scored, conceded float64, at time.Time, cfg config.ModelConfig) models.RatingSet {
	attackTarget := scored / cfg.LeagueAvgGoals
	defenseTarget := cfg.LeagueAvgGoals / math.Max(conceded, cfg.MinOpponentXG)

	attack := clamp(smooth(set.Attack.Value, attackTarget, cfg.RatingSmoothing), cfg.RatingFloor, cfg.RatingCeiling)
	defense := clamp(smooth(set.Defense.Value, defenseTarget, cfg.RatingSmoothing), cfg.RatingFloor, cfg.RatingCeiling)

	matches := set.MatchesPlayed() + 1
	tier := models.TierFor(matches)
	updated := u.now()

	next := set
	for _, kv := range []struct {
		kind  models.RatingKind
		value float64
	}{
		{models.RatingElo, elo},
		{models.RatingAttack, attack},
		{models.RatingDefense, defense},
	} {
		row := set.Get(kv.kind)
		row.TeamID = set.TeamID
		row.Kind = kv.kind
		row.Version = set.Version
		row.Value = kv.value
		row.MatchesPlayed = matches
		row.Confidence = tier
		row.LastMatchAt = &at
		row.UpdatedAt = updated
		next.Set(row)
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func smooth(old, target, weight float64) float64 {
	return weight*old + (1-weight)*target
}

// Changes lists the before/after transitions between two sets.
func Changes(before, after models.RatingSet, matchID int64) []models.RatingChange {
	out := make([]models.RatingChange, 0, 3)
	for _, kind := range models.RatingKinds() {
		b, a := before.Get(kind), after.Get(kind)
		at := a.UpdatedAt
		if a.LastMatchAt != nil {
			at = *a.LastMatchAt
		}
		out = append(out, models.RatingChange{
			TeamID:     after.TeamID,
			MatchID:    matchID,
			Kind:       kind,
			Version:    after.Version,
			Before:     b.Value,
			After:      a.Value,
			Matches:    a.MatchesPlayed,
			Confidence: a.Confidence,
			At:         at,
		})
	}
	return out
}
