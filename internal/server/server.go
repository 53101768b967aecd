// Package server exposes migrations over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmigrate/internal/engine"
	"github.com/leapstack-labs/leapmigrate/internal/state"
)

// Request defaults applied to fields a POST /api/migrate body leaves empty.
const (
	DefaultInputPath     = "assets/legacy"
	DefaultOutputPath    = "assets/reports/run_001"
	DefaultLegacyDialect = "postgres"
	DefaultTargetDialect = "snowflake"
)

// RunFunc runs one migration.
type RunFunc func(ctx context.Context, cfg engine.Config) (*engine.RunResult, error)

// Server is the migration HTTP server.
type Server struct {
	addr   string
	base   engine.Config
	store  state.Store
	run    RunFunc
	logger *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string
	// Engine supplies the settings a request cannot override: workers,
	// timeouts, mappings and the state database.
	Engine engine.Config
	// Store serves the run history endpoints (optional)
	Store state.Store
	// Run replaces engine.RunMigration (optional)
	Run    RunFunc
	Logger *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	run := cfg.Run
	if run == nil {
		run = engine.RunMigration
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	base := cfg.Engine
	if base.Logger == nil {
		base.Logger = logger
	}
	return &Server{addr: addr, base: base, store: cfg.Store, run: run, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/migrate", s.handleMigrate)
		r.Get("/dialects", s.handleDialects)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
