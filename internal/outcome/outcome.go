// Package outcome converts expected goals into Home/Draw/Away win
// probabilities through a Poisson scoreline model.
package outcome

import "math"

// DefaultMaxGoals bounds the scoreline matrix. Probability mass beyond the
// bound is an accepted truncation error; at 10 goals per side the matrix
// covers well over 99.9% of realistic scorelines.
const DefaultMaxGoals = 10

// Probabilities holds 1X2 outcome probabilities. They sum to at most 1 and
// converge to 1 as the matrix bound grows.
type Probabilities struct {
	HomeWin float64 `json:"p_home_win"`
	Draw    float64 `json:"p_draw"`
	AwayWin float64 `json:"p_away_win"`
}

// ScorelineMatrix builds the (maxGoals+1)×(maxGoals+1) joint probability
// table over (home goals, away goals), with cell (i,j) =
// pmf(i; homeXG) × pmf(j; awayXG).
//
// Home and away goal counts are modeled as independent Poisson variables.
// That is a deliberate simplification over correlated bivariate alternatives;
// the assumption lives only in this function so a future model can replace it.
func ScorelineMatrix(homeXG, awayXG float64, maxGoals int) [][]float64 {
	if maxGoals < 0 {
		maxGoals = 0
	}
	m := make([][]float64, maxGoals+1)
	for i := 0; i <= maxGoals; i++ {
		m[i] = make([]float64, maxGoals+1)
		for j := 0; j <= maxGoals; j++ {
			m[i][j] = PoissonPMF(homeXG, i) * PoissonPMF(awayXG, j)
		}
	}
	return m
}

// FromMatrix sums the lower triangle (home win), diagonal (draw) and upper
// triangle (away win) of a scoreline matrix. Mirrored cells are accumulated
// in lockstep so equal expected goals produce exactly equal home and away
// probabilities.
func FromMatrix(m [][]float64) Probabilities {
	var p Probabilities
	for i := range m {
		p.Draw += m[i][i]
		for j := 0; j < i; j++ {
			p.HomeWin += m[i][j]
			p.AwayWin += m[j][i]
		}
	}
	return p
}

// Derive computes outcome probabilities for the given expected goals.
func Derive(homeXG, awayXG float64, maxGoals int) Probabilities {
	return FromMatrix(ScorelineMatrix(homeXG, awayXG, maxGoals))
}

// PoissonPMF computes P(X = k) for X ~ Poisson(lambda), in log space for
// numerical stability.
func PoissonPMF(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	logProb := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logProb)
}

func logFactorial(n int) float64 {
	result := 0.0
	for i := 2; i <= n; i++ {
		result += math.Log(float64(i))
	}
	return result
}
