package handlers

import (
	"net/http"

	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
)

// HealthHandler serves the unauthenticated probe endpoints.
type HealthHandler struct {
	registry *registry.Registry
	shares   *vfs.Shares
}

// NewHealthHandler creates a health handler. Either argument may be nil, in
// which case readiness fails.
func NewHealthHandler(reg *registry.Registry, shares *vfs.Shares) *HealthHandler {
	return &HealthHandler{registry: reg, shares: shares}
}

// Liveness handles GET /health. It succeeds while the process serves HTTP.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "volbridge",
	}))
}

// Readiness handles GET /health/ready. The server is ready once at least
// one share is connected.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil || h.shares == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("registry not initialized"))
		return
	}

	shares := h.shares.Len()
	if shares == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no shares connected"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]int{
		"shares":      shares,
		"connections": h.registry.Len(),
	}))
}
