package models

// TeamForm aggregates a team's results over its most recent finished matches.
// All fields are order-independent sums, so the same match window always
// produces the same form regardless of iteration order.
type TeamForm struct {
	Points       int `json:"points"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
}

// Values returns the form fields in feature-vector order.
func (f TeamForm) Values() [6]float64 {
	return [6]float64{
		float64(f.Points),
		float64(f.GoalsFor),
		float64(f.GoalsAgainst),
		float64(f.Wins),
		float64(f.Draws),
		float64(f.Losses),
	}
}

// SentinelScore marks a prediction whose real result is not yet known.
const SentinelScore = -1

// PredictionRecord mirrors one row of the predictions table. A record is
// unique on (match_id, model); the real scores stay at SentinelScore until
// the backfill job fills them in.
type PredictionRecord struct {
	ID            int64   `json:"id"`
	MatchID       int64   `json:"match_id"`
	Model         string  `json:"model"`
	HomeID        int64   `json:"home_id"`
	HomeName      string  `json:"home_name"`
	HomeXG        float64 `json:"home_xg"`
	AwayID        int64   `json:"away_id"`
	AwayName      string  `json:"away_name"`
	AwayXG        float64 `json:"away_xg"`
	HomeP         float64 `json:"home_p"`
	DrawP         float64 `json:"draw_p"`
	AwayP         float64 `json:"away_p"`
	RealHomeScore int     `json:"real_home_score"`
	RealAwayScore int     `json:"real_away_score"`
}

// Prediction is the payload returned by a successful pipeline run.
type Prediction struct {
	RunID    string  `json:"run_id"`
	MatchID  int64   `json:"match_id"`
	ModelKey string  `json:"model_key"`
	HomeID   int64   `json:"home_id"`
	HomeName string  `json:"home_name"`
	AwayID   int64   `json:"away_id"`
	AwayName string  `json:"away_name"`
	HomeXG   float64 `json:"expected_home_goals"`
	AwayXG   float64 `json:"expected_away_goals"`
	HomeWinP float64 `json:"p_home_win"`
	DrawP    float64 `json:"p_draw"`
	AwayWinP float64 `json:"p_away_win"`
}
