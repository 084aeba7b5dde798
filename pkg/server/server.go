package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/internal/ratelimiter"
	"github.com/integrable/stardust/pkg/config"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/storage"
)

// Server is the HTTP front-end of stardust.
//
// It exposes the file and group operations of the storage orchestrator
// under /api/v1/storage, a version endpoint under /api/v1/info, and
// optionally the Prometheus registry under /metrics. Every storage route
// requires a verified bearer token; mutating routes additionally require
// the writer capability.
//
// Lifecycle:
//  1. Creation: New() with the orchestrator and token verifier
//  2. Startup: Start() blocks until the context is cancelled
//  3. Shutdown: context cancellation triggers graceful shutdown bounded
//     by the configured shutdown timeout
//
// Thread safety:
// Server is safe for concurrent use. Start() should only be called once
// per instance; Stop() is idempotent.
type Server struct {
	httpServer      *http.Server
	listenAddress   string
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// New creates the HTTP server wired to the given orchestrator.
//
// Parameters:
//   - cfg: HTTP server settings (listen address, timeouts, body limits)
//   - store: storage orchestrator handling all file and group operations
//   - verifier: bearer token verifier for request authentication
//   - version: version string reported by /api/v1/info/version
func New(cfg config.ServerConfig, store *storage.Orchestrator, verifier *identity.TokenVerifier, version string) *Server {
	var handler http.Handler = newRouter(store, verifier, version, cfg.MaxUploadBytes)
	if cfg.RateLimitRPS > 0 {
		handler = rateLimit(ratelimiter.New(cfg.RateLimitRPS, cfg.RateLimitBurst), handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      handler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		listenAddress:   cfg.ListenAddress,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or the server fails.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns its result.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", s.listenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("HTTP server shutdown signal received")
		// Don't use the cancelled ctx as it would abort shutdown immediately
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop initiates graceful shutdown.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("HTTP server shutdown initiated")

		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http server shutdown error: %w", err)
			logger.Error("HTTP server shutdown error: %v", err)
		} else {
			logger.Info("HTTP server stopped gracefully")
		}
	})
	return shutdownErr
}
