// Package httpapi serves catalog compiles to remote agents over HTTP.
//
// Routes:
//
//	GET|POST /puppet/v3/catalog/{node}   compile the node's catalog
//	GET      /status/v1/simple           liveness probe
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("httpapi: catalog service is required")

// Options configures the HTTP server.
type Options struct {
	// RateLimit is the sustained number of compiles per second.
	// Zero disables limiting.
	RateLimit float64

	// Burst is the number of compiles allowed at once. Defaults to the
	// rate rounded up, and at least 1.
	Burst int
}

// Server is the HTTP transport for catalog compiles.
type Server struct {
	catalogs driving.CatalogService
	limiter  *rate.Limiter
	newID    func() string
	handler  http.Handler
}

// NewServer creates an HTTP server for catalogs.
func NewServer(catalogs driving.CatalogService, opts Options) (*Server, error) {
	if catalogs == nil {
		return nil, ErrMissingCatalogService
	}

	s := &Server{
		catalogs: catalogs,
		newID:    uuid.NewString,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.RateLimit + 0.999)
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(burst, 1))
	}

	r := mux.NewRouter()
	r.Use(requestLoggingMiddleware)
	r.HandleFunc("/status/v1/simple", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/puppet/v3/catalog/{node}", s.handleCatalog).Methods(http.MethodGet, http.MethodPost)

	s.handler = gzhttp.GzipHandler(r)
	return s, nil
}

// Handler returns the root handler, with response compression.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serving http on %s: %w", addr, err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("running"))
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Debug("%s %s status=%d duration_ms=%d",
			r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds())
	})
}
