// Package features turns raw match-history windows into the fixed-shape
// numeric vectors the ensemble models were trained on.
package features

import (
	"strings"

	"github.com/xgoalpro/prediction-api/internal/models"
)

// VectorSize is the trained input width: two ratings plus six form fields
// per side.
const VectorSize = 14

// Extract aggregates a team's form over the finished matches in its recent
// window. Goals for/against are attributed by the team's home or away role
// in each match. Wins earn 3 points, draws 1. The result is deterministic
// for the same window regardless of slice order.
func Extract(teamID int64, window []models.Match) models.TeamForm {
	var form models.TeamForm

	for _, m := range window {
		if !strings.EqualFold(m.Status, models.StatusFinished) {
			continue
		}
		ft := m.Score.FullTime
		if ft.Home == nil || ft.Away == nil {
			// Finished but unscored entries occur during provider backfills.
			continue
		}

		isHome := m.HomeTeam.ID == teamID
		gf, ga := *ft.Home, *ft.Away
		if !isHome {
			gf, ga = ga, gf
		}

		form.GoalsFor += gf
		form.GoalsAgainst += ga

		switch {
		case gf > ga:
			form.Wins++
			form.Points += 3
		case gf == ga:
			form.Draws++
			form.Points++
		default:
			form.Losses++
		}
	}

	return form
}

// Vector assembles the 14-element feature vector:
// [home_rating, away_rating, home_form(6), away_form(6)].
func Vector(homeRating, awayRating float64, home, away models.TeamForm) []float64 {
	v := make([]float64, 0, VectorSize)
	v = append(v, homeRating, awayRating)
	hf := home.Values()
	v = append(v, hf[:]...)
	af := away.Values()
	v = append(v, af[:]...)
	return v
}
