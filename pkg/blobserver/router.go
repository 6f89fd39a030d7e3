package blobserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittoblob/internal/logger"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
)

// Options carries optional server collaborators.
type Options struct {
	// BlobMetrics observes blob traffic. Nil disables observation.
	BlobMetrics BlobMetrics

	// MetricsHandler, when non-nil, is mounted at /metrics.
	MetricsHandler http.Handler
}

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - PUT /v2/blobs/put - store a blob
//   - GET /v2/blobs/get - fetch a blob
//   - HEAD /v2/health/head - liveness probe used by codec clients
//   - GET /health - readiness probe with storage validation
//   - GET /metrics - Prometheus metrics (when enabled)
func NewRouter(drv driver.Driver, cfg Config, opts Options) http.Handler {
	cfg.ApplyDefaults()

	r := chi.NewRouter()

	// Middleware stack - order matters. No request timeout middleware
	// here: large blob transfers are bounded by the server's read and
	// write timeouts instead.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	blobs := &blobHandler{
		driver:       drv,
		maxBlobBytes: cfg.MaxBlobBytes.Int64(),
		metrics:      opts.BlobMetrics,
	}
	health := &healthHandler{driver: drv}

	r.Route("/v2", func(r chi.Router) {
		r.Route("/blobs", func(r chi.Router) {
			r.Put("/put", blobs.putBlob)
			r.Get("/get", blobs.getBlob)
		})
		r.Head("/health/head", health.head)
	})

	r.Get("/health", health.health)

	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	return r
}

// requestLogger logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("blob request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("blob request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
