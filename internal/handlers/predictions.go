package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xgoalpro/prediction-api/internal/pipeline"
	"github.com/xgoalpro/prediction-api/internal/upstream"
)

// PredictRequest is the body for POST /predictions. Models carries one flag
// per registry entry, in registry order.
type PredictRequest struct {
	MatchID int64  `json:"match_id" validate:"required"`
	HomeID  int64  `json:"home_id" validate:"required"`
	AwayID  int64  `json:"away_id" validate:"required"`
	Models  []bool `json:"models" validate:"required"`
}

// CreatePrediction runs the full pipeline for one fixture and returns the
// outcome probabilities for every selected model.
func (h *Handler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	result := h.pipeline.Predict(r.Context(), pipeline.Request{
		MatchID: req.MatchID,
		HomeID:  req.HomeID,
		AwayID:  req.AwayID,
		Models:  req.Models,
	})

	status := http.StatusCreated
	if !result.OK {
		switch {
		case result.Rejected:
			status = http.StatusBadRequest
		case len(result.Messages) > 0 && result.Messages[0] == upstream.RateLimitGuidance:
			status = http.StatusTooManyRequests
		default:
			status = http.StatusBadGateway
		}
	}
	h.jsonResponse(w, status, result)
}

// ListPredictions returns every stored prediction row.
func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.GetAllPredictions(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list predictions", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to retrieve predictions")
		return
	}
	h.jsonResponse(w, http.StatusOK, records)
}
