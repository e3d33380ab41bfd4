package handlers

import (
	"net/http"

	"github.com/marmos91/volbridge/pkg/registry"
)

// HandleHandler exposes the handle registry.
type HandleHandler struct {
	registry *registry.Registry
}

// NewHandleHandler creates a handler over reg.
func NewHandleHandler(reg *registry.Registry) *HandleHandler {
	return &HandleHandler{registry: reg}
}

// List handles GET /api/v1/handles.
func (h *HandleHandler) List(w http.ResponseWriter, r *http.Request) {
	OK(w, h.registry.List())
}
