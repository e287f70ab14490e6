package models

// Wire types for the football-data style competition API. Only the fields
// the prediction engine reads are mapped.

// StatusFinished is the upstream status for a completed match.
const StatusFinished = "FINISHED"

// Competition identifies a league on the upstream provider.
type Competition struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Emblem string `json:"emblem"`
}

// CompetitionsResponse is the payload of GET competitions/.
type CompetitionsResponse struct {
	Competitions []Competition `json:"competitions"`
}

// MatchTeam is the per-side team block embedded in a match.
type MatchTeam struct {
	ID    int64  `json:"id"`
	Name  string `json:"shortName"`
	Crest string `json:"crest"`
}

// ScorePair holds full-time goals; both sides are nil until the match is played.
type ScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Score wraps the full-time result of a match.
type Score struct {
	FullTime ScorePair `json:"fullTime"`
}

// Match is a single entry of a team's match window, and also the shape of
// GET matches/{id}.
type Match struct {
	ID          int64       `json:"id"`
	UTCDate     string      `json:"utcDate"`
	Status      string      `json:"status"`
	HomeTeam    MatchTeam   `json:"homeTeam"`
	AwayTeam    MatchTeam   `json:"awayTeam"`
	Score       Score       `json:"score"`
	Competition Competition `json:"competition"`
}

// MatchesResponse is the payload of GET teams/{id}/matches and
// GET matches/{id}/head2head.
type MatchesResponse struct {
	Matches []Match `json:"matches"`
}

// StandingsResponse is the payload of GET competitions/{code}/standings.
type StandingsResponse struct {
	Competition Competition `json:"competition"`
	Standings   []Standing  `json:"standings"`
}

// Standing is one table (overall, home, away) of a standings response.
type Standing struct {
	Table []TableEntry `json:"table"`
}

// TableEntry is one row of a standings table.
type TableEntry struct {
	Team MatchTeam `json:"team"`
}
