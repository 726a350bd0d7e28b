// Package server exposes a read-only HTTP API over a running engine: health,
// per-instance state, recent intents and stored runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jackleZac/trading-algorithm/internal/server/handler"
	"github.com/jackleZac/trading-algorithm/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr   string
	APIKey string // if empty, authentication is disabled
}

// Handlers aggregates the handlers the server registers. Runs may be nil when
// no database is configured.
type Handlers struct {
	Status *handler.StatusHandler
	Runs   *handler.RunHandler
}

// Server is the status API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. Health and metrics
// bypass authentication.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))

	api := http.NewServeMux()
	api.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	api.HandleFunc("GET /api/instances", handlers.Status.ListInstances)
	api.HandleFunc("GET /api/intents", handlers.Status.ListIntents)
	if handlers.Runs != nil {
		api.HandleFunc("GET /api/runs/{id}", handlers.Runs.GetRun)
		api.HandleFunc("GET /api/runs/{id}/intents", handlers.Runs.ListIntents)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handlers.Status.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", middleware.Auth(cfg.APIKey)(api))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.Logging(logger)(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests within the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
