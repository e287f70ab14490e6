package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xgoalpro/prediction-api/internal/models"
)

// GetLeagues lists the configured competitions with their emblems.
func (h *Handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.data.Leagues(r.Context())
	if err != nil {
		h.upstreamError(w, "leagues", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, leagues)
}

// GetTeams lists the teams of one league's standings table.
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		h.errorResponse(w, http.StatusBadRequest, "League code is required")
		return
	}

	teams, competition, err := h.data.Teams(r.Context(), code)
	if err != nil {
		h.upstreamError(w, "teams", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, models.TeamList{
		Competition: competition,
		Teams:       teams,
	})
}

// GetUpcomingMatches lists a team's scheduled fixtures.
func (h *Handler) GetUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil || teamID <= 0 {
		h.errorResponse(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	matches, err := h.data.UpcomingMatches(r.Context(), teamID)
	if err != nil {
		h.upstreamError(w, "matches", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, matches)
}

// GetHeadToHead returns a fixture's meeting history together with the
// selectable models, so the shell can render both from one call.
func (h *Handler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil || matchID <= 0 {
		h.errorResponse(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	matches, err := h.data.HeadToHead(r.Context(), matchID)
	if err != nil {
		h.upstreamError(w, "head-to-head history", err)
		return
	}

	infos := make([]models.ModelInfo, 0, h.registry.Len())
	for _, e := range h.registry.Entries() {
		infos = append(infos, models.ModelInfo{Name: e.Name, Description: e.Description})
	}
	h.jsonResponse(w, http.StatusOK, models.H2HResponse{
		Matches: matches,
		Models:  infos,
	})
}
