// Package http serves the artist API together with health, readiness and
// Prometheus endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fujirock/internal/core"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	metrics  *Metrics
	registry *prometheus.Registry
}

// NewServer builds the HTTP server around api. Metrics live in a private
// registry so several servers can coexist in one process.
func NewServer(config *core.ServerConfig, api *API, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)

	api.Metrics = metrics
	if api.Logger == nil {
		api.Logger = logger
	}

	mux := setupRoutes(api, registry, logger)

	return &Server{
		config:   config,
		logger:   logger,
		server:   createHTTPServer(config, instrument(mux, metrics)),
		metrics:  metrics,
		registry: registry,
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(api *API, registry *prometheus.Registry, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok","service":"fujirock"}`, logger)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := api.Store.Ping(r.Context()); err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, `{"status":"unavailable","service":"fujirock"}`, logger)
			return
		}
		writeStatus(w, http.StatusOK, `{"status":"ready","service":"fujirock"}`, logger)
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", homeHandler(logger))

	api.routes(mux)

	return mux
}

func writeStatus(w http.ResponseWriter, status int, body string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Debug("Failed to write status response", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(homePage)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>Fujirock</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint code { color: #0066cc; }
    </style>
</head>
<body>
    <h1 class="header">Fujirock</h1>
    <p>Festival artist catalog with fuzzy name resolution.</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>GET /api/artists/search?q=</code> - Ranked artist search</div>
    <div class="endpoint"><code>GET /api/artists/by-name/{name}</code> - Resolve a name</div>
    <div class="endpoint"><code>POST /api/artists</code> - Create an artist</div>
    <div class="endpoint"><code>GET /api/tracks/preview?artist=&amp;track=</code> - Track preview</div>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records the count and latency of every request by route
// pattern.
func instrument(mux *http.ServeMux, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		mux.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, rec.status, time.Since(start))
	})
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
