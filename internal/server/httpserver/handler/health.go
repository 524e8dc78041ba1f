package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// GET /health answers 200 as long as the process serves HTTP.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		Time:    now(),
	})
}

// GET /ready follows the RESP listener, so a load balancer stops routing
// to a server that is shutting down.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "resp listener is not running")
		return
	}
	h.writeJSON(w, r, http.StatusOK, ReadyResponse{
		Status:      "ready",
		Connections: h.conns(),
		Time:        now(),
	})
}
