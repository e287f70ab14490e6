package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/xgoalpro/prediction-api/internal/upstream"
)

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, msg string) {
	h.jsonResponse(w, status, map[string]string{"error": msg})
}

// upstreamError maps data-gateway failures to responses: rate limiting gets
// the provider's fixed guidance text, everything else a short generic
// message with the raw error kept in the logs.
func (h *Handler) upstreamError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, upstream.ErrRateLimited) {
		h.errorResponse(w, http.StatusTooManyRequests, upstream.RateLimitGuidance)
		return
	}
	h.logger.Errorw("Upstream fetch failed", "what", what, "error", err)
	h.errorResponse(w, http.StatusBadGateway, "Could not load "+what+" – please try again later.")
}

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]bool{
		"postgres": h.pg != nil && h.pg.Ping(ctx) == nil,
	}
	if h.redis != nil {
		checks["redis"] = h.redis.Ping(ctx).Err() == nil
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]any{
		"ready":  allHealthy,
		"checks": checks,
	})
}
