package models

// View types returned by the HTTP API to the desktop shell.

// League is a browsable competition with its emblem image inlined.
type League struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Emblem []byte `json:"emblem,omitempty"`
}

// Team is one entry of a league's standings table.
type Team struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Emblem []byte `json:"emblem,omitempty"`
}

// TeamList pairs a league's teams with the competition name.
type TeamList struct {
	Competition string `json:"competition"`
	Teams       []Team `json:"teams"`
}

// UpcomingMatch is a fixture a prediction can be requested for.
type UpcomingMatch struct {
	ID          int64  `json:"id"`
	HomeID      int64  `json:"home_id"`
	HomeName    string `json:"home_name"`
	HomeEmblem  []byte `json:"home_emblem,omitempty"`
	AwayID      int64  `json:"away_id"`
	AwayName    string `json:"away_name"`
	AwayEmblem  []byte `json:"away_emblem,omitempty"`
	Date        string `json:"date"`
	Competition string `json:"competition"`
}

// H2HMatch is one historical meeting between two sides.
type H2HMatch struct {
	Competition string `json:"competition"`
	Date        string `json:"date"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeScore   *int   `json:"home_score"`
	AwayScore   *int   `json:"away_score"`
}

// ModelInfo describes one ensemble member for the model picker.
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// H2HResponse bundles head-to-head history with the available models.
type H2HResponse struct {
	Matches []H2HMatch  `json:"matches"`
	Models  []ModelInfo `json:"models"`
}
