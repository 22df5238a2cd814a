package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type HealthHandler struct {
	ping   func(ctx context.Context) error
	logger zerolog.Logger
}

func NewHealthHandler(ping func(ctx context.Context) error, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, logger: logger}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "down"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
