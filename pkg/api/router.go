package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/pkg/api/handlers"
	"github.com/marmos91/volbridge/pkg/metrics"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
)

// NewRouter creates the chi router serving the admin API.
//
// Routes:
//   - GET /health, /health/ready
//   - GET /metrics
//   - GET /api/v1/handles
//   - GET /api/v1/shares, /api/v1/shares/{name}
//   - GET /api/v1/shares/{name}/stat, /statvfs, /df, /xattrs
//   - GET, PUT, DELETE /api/v1/shares/{name}/acl
func NewRouter(reg *registry.Registry, shares *vfs.Shares) http.Handler {
	r := chi.NewRouter()

	// Order matters.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := handlers.NewHealthHandler(reg, shares)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	handles := handlers.NewHandleHandler(reg)
	shareHandler := handlers.NewShareHandler(reg, shares)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/handles", handles.List)

		r.Route("/shares", func(r chi.Router) {
			r.Get("/", shareHandler.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", shareHandler.Get)
				r.Get("/stat", shareHandler.Stat)
				r.Get("/statvfs", shareHandler.Statvfs)
				r.Get("/df", shareHandler.DiskFree)
				r.Get("/xattrs", shareHandler.ListXattrs)
				r.Get("/acl", shareHandler.GetACL)
				r.Put("/acl", shareHandler.SetACL)
				r.Delete("/acl", shareHandler.DeleteACL)
			})
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs every request through the process logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(float64(time.Since(start).Microseconds())/1000),
		)
	})
}
