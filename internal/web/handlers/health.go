package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// Healthz reports whether the datastore answers a ping
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		h.jsonError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	h.jsonResponse(w, map[string]string{"status": "ok"})
}
