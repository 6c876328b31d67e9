package server

import (
	"github.com/optimusx/nl2sql/internal/agent"
	"github.com/optimusx/nl2sql/internal/config"
	"github.com/optimusx/nl2sql/internal/handler"
	"github.com/optimusx/nl2sql/internal/llm"
	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/optimusx/nl2sql/internal/security"
	"github.com/optimusx/nl2sql/internal/service"
)

// NewCompleter picks the model client named by cfg.LLMProvider
func NewCompleter(cfg *config.Config) nl2sql.Completer {
	if cfg.LLMProvider == "anthropic" {
		return llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)
	}
	return llm.NewGemini(llm.GeminiConfig{
		URL:     cfg.GeminiAPIURL,
		APIKey:  cfg.GoogleAPIKey,
		Timeout: cfg.LLMTimeout(),
	})
}

// NewExecutor builds the PostgreSQL executor from the PG* settings
func NewExecutor(cfg *config.Config) *service.PostgresExecutor {
	return service.NewPostgresExecutor(service.PostgresConfig{
		Database: cfg.PGDatabase,
		User:     cfg.PGUser,
		Password: cfg.PGPassword,
		Host:     cfg.PGHost,
		Port:     cfg.PGPort,
	})
}

// NewPipeline assembles the question-answering pipeline. The statement guard
// is only installed when ENABLE_SQL_VALIDATION is set.
func NewPipeline(cfg *config.Config, completer nl2sql.Completer, executor nl2sql.Executor) *nl2sql.Pipeline {
	var opts []nl2sql.Option
	if cfg.EnableSQLValidation {
		names := make([]string, 0, 3)
		for _, t := range nl2sql.Tables() {
			names = append(names, t.Name)
		}
		opts = append(opts, nl2sql.WithGuard(security.NewSQLValidator(names).Validate))
	}
	return nl2sql.NewPipeline(completer, executor, opts...)
}

// NewAgent returns nil when no Anthropic key is configured
func NewAgent(cfg *config.Config, pipeline handler.Answerer, executor nl2sql.Executor) *agent.Agent {
	if cfg.AnthropicAPIKey == "" {
		return nil
	}
	pipeline, executor = withMasking(cfg, pipeline, executor)
	return agent.New(cfg.AnthropicAPIKey, cfg.AgentModel, cfg.AnthropicBaseURL, newRegistry(pipeline, executor))
}

// withMasking wraps both result sources when ENABLE_DATA_MASKING is set
func withMasking(cfg *config.Config, a handler.Answerer, e nl2sql.Executor) (handler.Answerer, nl2sql.Executor) {
	if !cfg.EnableDataMasking {
		return a, e
	}
	masker := security.NewDataMasker(cfg.SensitiveColumns)
	if a != nil {
		a = handler.MaskingAnswerer{Answerer: a, Masker: masker}
	}
	if e != nil {
		e = handler.MaskingExecutor{Executor: e, Masker: masker}
	}
	return a, e
}

var _ handler.Answerer = (*nl2sql.Pipeline)(nil)
