// Package server exposes the sync engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/journalsync/internal/server/handlers"
	"github.com/iudanet/journalsync/internal/server/middleware"
)

// NewRouter mounts the API under /api/v1 next to /health and /metrics.
func NewRouter(svc handlers.Service, version string, logger *slog.Logger) http.Handler {
	h := handlers.New(svc, logger)
	health := handlers.NewHealthHandler(logger, version)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/health", "/metrics"}))
	r.Use(middleware.MetricsMiddleware())

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/files", h.Register)
		r.Delete("/files", h.Unregister)
		r.Get("/status", h.Status)
		r.Post("/sync", h.Sync)
		r.Get("/logs", h.Logs)
		r.Post("/conflicts/resolve", h.Resolve)

		r.Get("/config", h.GetConfig)
		r.Patch("/config", h.UpdateConfig)
		r.Get("/datatypes", h.DataTypes)
		r.Put("/datatypes/{name}", h.UpdateDataType)
		r.Get("/scheduler", h.Scheduler)

		r.Get("/backups", h.ListBackups)
		r.Post("/backups", h.CreateBackup)
		r.Post("/backups/restore", h.RestoreBackup)
		r.Post("/backups/cleanup", h.CleanupBackups)
		r.Post("/unlock", h.Unlock)
	})

	return r
}

// Server is the daemon HTTP server.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New creates a server listening on addr.
func New(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// batch syncs and backups may take minutes
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		logger:          logger.With(slog.String("component", "http")),
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
