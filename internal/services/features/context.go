package features

import (
	"time"

	"TipsEngine/internal/domain/models"
	"TipsEngine/pkg/util"
)

// RestDays counts days between a team's previous match and kickoff. It is
// nil when there is no previous match or the gap exceeds capDays.
func RestDays(previous *time.Time, kickoff time.Time, capDays int) *int {
	if previous == nil || previous.After(kickoff) {
		return nil
	}
	d := util.DaysBetween(*previous, kickoff)
	if capDays > 0 && d > capDays {
		return nil
	}
	return &d
}

// Perspective turns a finished match into a TeamMatch seen from teamID.
// aux may be nil.
func Perspective(m models.Match, teamID int64, aux *models.XStatsData) (models.TeamMatch, bool) {
	if !m.HasFinalScore() {
		return models.TeamMatch{}, false
	}
	home := m.HomeTeamID == teamID
	if !home && m.AwayTeamID != teamID {
		return models.TeamMatch{}, false
	}

	tm := models.TeamMatch{
		MatchID:  m.ID,
		PlayedAt: m.KickoffAt,
		IsHome:   home,
	}
	if home {
		tm.OpponentID = m.AwayTeamID
		tm.GoalsFor, tm.GoalsAgainst = *m.HomeGoals, *m.AwayGoals
	} else {
		tm.OpponentID = m.HomeTeamID
		tm.GoalsFor, tm.GoalsAgainst = *m.AwayGoals, *m.HomeGoals
	}
	if aux != nil {
		tm.XGFor, tm.XGAgainst = aux.SideXG(home)
	}
	return tm, true
}

// Inputs captures which calculation inputs were available.
type Inputs struct {
	HomeMatches  int
	AwayMatches  int
	HasOdds      bool
	HomeForm     *float64
	AwayForm     *float64
	HomeRestDays *int
	AwayRestDays *int
}

// MissingInputs lists the absent inputs in a fixed order. A rating counts as
// missing while no match has contributed to it.
func MissingInputs(in Inputs) []string {
	missing := make([]string, 0, 7)
	add := func(absent bool, name string) {
		if absent {
			missing = append(missing, name)
		}
	}
	add(in.HomeMatches == 0, models.InputHomeRating)
	add(in.AwayMatches == 0, models.InputAwayRating)
	add(!in.HasOdds, models.InputOdds)
	add(in.HomeForm == nil, models.InputHomeForm)
	add(in.AwayForm == nil, models.InputAwayForm)
	add(in.HomeRestDays == nil, models.InputHomeRest)
	add(in.AwayRestDays == nil, models.InputAwayRest)
	return missing
}
