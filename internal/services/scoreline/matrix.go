package scoreline

import "math"

// ScoreMatrix holds joint scoreline probabilities, [home][away], truncated
// at Bound goals per side and renormalised to sum to 1.
type ScoreMatrix struct {
	Bound      int
	LambdaHome float64
	LambdaAway float64
	Cells      [][]float64
}

// NewScoreMatrix builds the Dixon-Coles adjusted Poisson grid.
func NewScoreMatrix(lambdaHome, lambdaAway, rho float64, bound int) *ScoreMatrix {
	ph := poissonPMF(lambdaHome, bound)
	pa := poissonPMF(lambdaAway, bound)

	cells := make([][]float64, bound+1)
	total := 0.0
	for h := 0; h <= bound; h++ {
		cells[h] = make([]float64, bound+1)
		for a := 0; a <= bound; a++ {
			p := ph[h] * pa[a] * lowScoreCorrection(h, a, lambdaHome, lambdaAway, rho)
			cells[h][a] = p
			total += p
		}
	}
	if total > 0 {
		for h := range cells {
			for a := range cells[h] {
				cells[h][a] /= total
			}
		}
	}

	return &ScoreMatrix{Bound: bound, LambdaHome: lambdaHome, LambdaAway: lambdaAway, Cells: cells}
}

// lowScoreCorrection is the Dixon-Coles tau factor. Only 0-0, 1-0, 0-1 and
// 1-1 are adjusted; the factor never goes negative.
func lowScoreCorrection(h, a int, lh, la, rho float64) float64 {
	var tau float64
	switch {
	case h == 0 && a == 0:
		tau = 1 - lh*la*rho
	case h == 0 && a == 1:
		tau = 1 + lh*rho
	case h == 1 && a == 0:
		tau = 1 + la*rho
	case h == 1 && a == 1:
		tau = 1 - rho
	default:
		return 1
	}
	return math.Max(tau, 0)
}

func poissonPMF(lambda float64, bound int) []float64 {
	out := make([]float64, bound+1)
	p := math.Exp(-lambda)
	for k := 0; k <= bound; k++ {
		if k > 0 {
			p *= lambda / float64(k)
		}
		out[k] = p
	}
	return out
}

// MatchOdds returns home win, draw and away win probabilities.
func (m *ScoreMatrix) MatchOdds() (home, draw, away float64) {
	for h, row := range m.Cells {
		for a, p := range row {
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
		}
	}
	return home, draw, away
}

// OverUnder splits total goals at line (e.g. 2.5).
func (m *ScoreMatrix) OverUnder(line float64) (over, under float64) {
	for h, row := range m.Cells {
		for a, p := range row {
			if float64(h+a) > line {
				over += p
			} else {
				under += p
			}
		}
	}
	return over, under
}

func (m *ScoreMatrix) BothTeamsToScore() (yes, no float64) {
	for h, row := range m.Cells {
		for a, p := range row {
			if h > 0 && a > 0 {
				yes += p
			} else {
				no += p
			}
		}
	}
	return yes, no
}

// MostLikely returns the single most probable scoreline.
func (m *ScoreMatrix) MostLikely() (home, away int, prob float64) {
	for h, row := range m.Cells {
		for a, p := range row {
			if p > prob {
				home, away, prob = h, a, p
			}
		}
	}
	return home, away, prob
}

func (m *ScoreMatrix) Total() float64 {
	total := 0.0
	for _, row := range m.Cells {
		for _, p := range row {
			total += p
		}
	}
	return total
}
