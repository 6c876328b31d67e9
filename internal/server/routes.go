package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/optimusx/nl2sql/internal/handler"
	"github.com/optimusx/nl2sql/internal/metrics"
	"github.com/optimusx/nl2sql/internal/middleware"
	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/optimusx/nl2sql/internal/security"
	"github.com/optimusx/nl2sql/internal/tools"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router needs. Tests substitute fakes.
type Deps struct {
	Pipeline handler.Answerer
	Executor nl2sql.Executor // nil leaves out the sample_rows tool
	Database handler.Pinger
	Agent    handler.Runner // nil disables POST /agent
}

func (s *Server) setupRoutes(ctx context.Context, deps Deps) http.Handler {
	cfg := s.cfg

	log.Info().
		Str("llm_provider", cfg.LLMProvider).
		Bool("llm_configured", cfg.LLMConfigured()).
		Bool("agent_enabled", deps.Agent != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("sql_validation", cfg.EnableSQLValidation).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Bool("prompt_validation", cfg.EnablePromptValidation).
		Msg("service configuration")

	if !cfg.LLMConfigured() {
		log.Warn().Str("provider", cfg.LLMProvider).Msg("no API key for the model provider - answers will carry the provider's error text")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - API routes are open")
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	guards := handler.Guards{Audit: security.NewAuditLogger(cfg.EnableAuditLogging)}
	if cfg.EnablePromptValidation {
		guards.Prompt = security.NewPromptValidator()
	}
	if cfg.EnablePIIDetection {
		guards.PII = security.NewPIIDetector(cfg.PIIKeywords)
	}

	pipeline, executor := withMasking(cfg, deps.Pipeline, deps.Executor)

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(deps.Database, cfg.LLMConfigured())
	answerH := handler.NewAnswerHandler(pipeline, guards)
	toolsH := handler.NewToolsHandler(newRegistry(pipeline, executor), guards)
	agentH := handler.NewAgentHandler(deps.Agent, guards)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	go limiter.Run(ctx, 5*time.Minute)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(cfg.APIKeyHeader))
		if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Get("/schema", handler.Schema)
			r.Post("/answer", answerH.Answer)
			r.Get("/tools", toolsH.List)
			r.Post("/tools/{name}", toolsH.Invoke)
			r.Post("/agent", agentH.Run)
		})
	})

	return r
}

func newRegistry(pipeline tools.Answerer, executor nl2sql.Executor) *tools.Registry {
	r := tools.NewRegistry(tools.NLToSQLTool(pipeline), tools.DescribeSchemaTool())
	if executor != nil {
		r.Register(tools.SampleRowsTool(executor))
	}
	return r
}
