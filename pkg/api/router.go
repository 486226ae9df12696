package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/pkg/api/handlers"
	"github.com/marmos91/cifsgate/pkg/server"
)

// NewRouter creates the chi router with the middleware stack and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /server - Server summary
//   - GET /handlers, /handlers/{name} - Session handlers
//   - GET /sessions, /sessions/{id} - Active sessions
//   - GET /shares[?session=ID], /shares/{name} - Shares
//   - GET /shares/{name}/access?session=ID - Access check
//
// Every route except health requires a non-nil server.
func NewRouter(srv *server.Server, metrics *Metrics) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(metrics.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := handlers.NewHealthHandler(srv)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	if srv != nil {
		serverHandler := handlers.NewServerHandler(srv)
		sessions := handlers.NewSessionsHandler(srv)
		shares := handlers.NewSharesHandler(srv)

		r.Get("/server", serverHandler.Info)
		r.Route("/handlers", func(r chi.Router) {
			r.Get("/", serverHandler.ListHandlers)
			r.Get("/{name}", serverHandler.GetHandler)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Get("/{id}", sessions.Get)
		})
		r.Route("/shares", func(r chi.Router) {
			r.Get("/", shares.List)
			r.Get("/{name}", shares.Get)
			r.Get("/{name}/access", shares.Access)
		})
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs request start at DEBUG and completion at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			logger.KeyPath, r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, time.Since(start).Milliseconds(),
		)
	})
}
