// Package httpserver exposes the control plane: scan results, runtime
// settings, execution history, websocket updates and operational
// endpoints.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/internal/execution"
	"github.com/dpereira/kalshi-poly-arb/internal/scanner"
	"github.com/dpereira/kalshi-poly-arb/pkg/healthprobe"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

// ScanService is the scanner surface the control plane reads from.
type ScanService interface {
	Stats() scanner.Stats
	Opportunities() []types.OpportunitySummary
	Matches() []types.MatchSummary
	UpdateSettings(update scanner.SettingsUpdate)
	Subscribe() scanner.Subscriber
	Unsubscribe(sub scanner.Subscriber)
}

// ExecutionService is the executor surface the control plane reads from.
type ExecutionService interface {
	ExecutionLog() []*execution.ExecutionRecord
	DailyPnL() float64
}

// Server provides the HTTP control plane.
type Server struct {
	server *http.Server
	router chi.Router
	logger *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Scanner       ScanService
	Executions    ExecutionService
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	if cfg.Scanner != nil {
		api := newAPIHandler(cfg.Scanner, cfg.Executions, cfg.Logger)
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/opportunities", api.handleOpportunities)
			r.Get("/matches", api.handleMatches)
			r.Get("/stats", api.handleStats)
			r.Get("/executions", api.handleExecutions)
			r.Post("/settings", api.handleSettings)
		})

		ws := newWSHandler(cfg.Scanner, cfg.Logger)
		r.Get("/ws", ws.handle)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server: server,
		router: r,
		logger: cfg.Logger,
	}
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
