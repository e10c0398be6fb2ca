package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	heightFn func() uint64
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(heightFn func() uint64, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{heightFn: heightFn, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is
// alive, plus the current block height.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"height":    h.heightFn(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
