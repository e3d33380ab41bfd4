package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Response is the envelope of every API reply.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode API response", logger.Err(err))
	}
}

func healthyResponse(data any) Response {
	return Response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(msg string) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: msg}
}

func okResponse(data any) Response {
	return Response{Status: "ok", Timestamp: time.Now().UTC(), Data: data}
}

func errorResponse(msg string) Response {
	return Response{Status: "error", Timestamp: time.Now().UTC(), Error: msg}
}

// OK writes a 200 reply carrying data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, okResponse(data))
}

// BadRequest writes a 400 reply.
func BadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse(msg))
}

// NotFound writes a 404 reply.
func NotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorResponse(msg))
}

// InternalServerError writes a 500 reply.
func InternalServerError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse(msg))
}

// statusFor maps share layer errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vfs.ErrShareNotFound),
		errors.Is(err, volume.ErrNotFound),
		errors.Is(err, volume.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, volume.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, volume.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, vfs.ErrDisconnected),
		errors.Is(err, volume.ErrClosed),
		errors.Is(err, registry.ErrClosed),
		errors.Is(err, registry.ErrConnectionFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError replies with the status matching err.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("API request failed", logger.Err(err))
	}
	writeJSON(w, status, errorResponse(err.Error()))
}

// decodeJSONBody decodes the request body into v. On failure a 400 reply is
// written and false returned.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}
