package gateway

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status      string `json:"status"` // "ok" or "degraded"
	Schedules   int    `json:"schedules"`
	Credentials int    `json:"credentials"`
	Store       string `json:"store,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 503 when the store does not answer a ping.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:      "ok",
			Schedules:   g.scheduler.Len(),
			Credentials: g.creds.Len(),
		}

		status := http.StatusOK
		if g.store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			resp.Store = "ok"
			if err := g.store.Ping(ctx); err != nil {
				g.logger.Warn("health: store ping failed", "error", err)
				resp.Status = "degraded"
				resp.Store = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, resp)
	}
}
