package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/optimusx/nl2sql/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg  *config.Config
	http *http.Server
}

// New wires the production dependencies from cfg
func New(ctx context.Context, cfg *config.Config) *Server {
	executor := NewExecutor(cfg)
	pipeline := NewPipeline(cfg, NewCompleter(cfg), executor)

	deps := Deps{Pipeline: pipeline, Executor: executor, Database: executor}
	if a := NewAgent(cfg, pipeline, executor); a != nil {
		deps.Agent = a
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - hosted agent disabled")
	}
	return NewWithDeps(ctx, cfg, deps)
}

// NewWithDeps builds the server around the given collaborators. ctx bounds
// background work such as rate limiter eviction.
func NewWithDeps(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	s := &Server{cfg: cfg}
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.setupRoutes(ctx, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.AgentTimeout+30) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
