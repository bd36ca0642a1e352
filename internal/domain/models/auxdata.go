package models

import (
	"encoding/json"
	"fmt"

	"TipsEngine/pkg/util"
)

// AuxDataType tags a scraped auxiliary payload attached to a match.
type AuxDataType string

const AuxXStats AuxDataType = "xStats"

// AuxData is a typed auxiliary payload. Implementations are decoded by
// DecodeAuxData from their stored JSON form.
type AuxData interface {
	DataType() AuxDataType
}

// XStatsTeam holds one side's expected-goals statistics.
type XStatsTeam struct {
	Name string
	XG   *float64 // expected goals for
	XGA  *float64 // expected goals against
	XP   *float64 // expected points
}

// XStatsData is the xStats payload: per-side expected goals.
type XStatsData struct {
	Home           XStatsTeam
	Away           XStatsTeam
	SelectedPeriod string
}

func (XStatsData) DataType() AuxDataType { return AuxXStats }

// MatchXG returns the expected goals of both sides when present.
func (x XStatsData) MatchXG() (MatchXG, bool) {
	if x.Home.XG == nil || x.Away.XG == nil {
		return MatchXG{}, false
	}
	return MatchXG{Home: *x.Home.XG, Away: *x.Away.XG}, true
}

// SideXG returns (for, against) from the given side's perspective. The
// opponent's xG is used as "against" when the side carries no xGA figure.
func (x XStatsData) SideXG(home bool) (xgFor, xgAgainst *float64) {
	own, opp := x.Home, x.Away
	if !home {
		own, opp = x.Away, x.Home
	}
	xgFor = own.XG
	xgAgainst = opp.XG
	if xgAgainst == nil {
		xgAgainst = own.XGA
	}
	return xgFor, xgAgainst
}

type rawGoalStats struct {
	XG  *string `json:"xg"`
	XGC *string `json:"xgc"`
}

type rawExpectedPoints struct {
	XP *string `json:"xp"`
}

type rawXStatsTeam struct {
	Name           string             `json:"name"`
	GoalStats      *rawGoalStats      `json:"goalStats"`
	ExpectedPoints *rawExpectedPoints `json:"expectedPoints"`
	XG             *float64           `json:"xg"`
	XGA            *float64           `json:"xga"`
	XP             *float64           `json:"xp"`
}

type rawXStats struct {
	HomeTeam       rawXStatsTeam `json:"homeTeam"`
	AwayTeam       rawXStatsTeam `json:"awayTeam"`
	SelectedPeriod string        `json:"selectedPeriod"`
}

// DecodeAuxData decodes a stored payload according to its data type tag.
func DecodeAuxData(dataType string, raw []byte) (AuxData, error) {
	switch AuxDataType(dataType) {
	case AuxXStats:
		return decodeXStats(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuxData, dataType)
	}
}

func decodeXStats(raw []byte) (XStatsData, error) {
	var r rawXStats
	if err := json.Unmarshal(raw, &r); err != nil {
		return XStatsData{}, fmt.Errorf("decode xStats: %w", err)
	}
	return XStatsData{
		Home:           r.HomeTeam.toTeam(),
		Away:           r.AwayTeam.toTeam(),
		SelectedPeriod: r.SelectedPeriod,
	}, nil
}

func (t rawXStatsTeam) toTeam() XStatsTeam {
	out := XStatsTeam{Name: t.Name, XG: t.XG, XGA: t.XGA, XP: t.XP}
	if t.GoalStats != nil {
		if v, ok := parseDecimalPtr(t.GoalStats.XG); ok {
			out.XG = &v
		}
		if v, ok := parseDecimalPtr(t.GoalStats.XGC); ok {
			out.XGA = &v
		}
	}
	if t.ExpectedPoints != nil {
		if v, ok := parseDecimalPtr(t.ExpectedPoints.XP); ok {
			out.XP = &v
		}
	}
	return out
}

func parseDecimalPtr(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return util.ParseDecimal(*s)
}
