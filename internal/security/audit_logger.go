package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs answered questions with hashed identifiers so the audit
// trail never carries the raw question, statement or key.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// AnswerEvent describes one pass through the pipeline
type AnswerEvent struct {
	Question   string
	APIKey     string
	SQL        string
	Status     string
	RowCount   int
	DurationMs int64
	DryRun     bool
	Error      string
}

// LogAnswer records an answered (or translated) question
func (a *AuditLogger) LogAnswer(e AnswerEvent) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "answer_audit").
		Str("question_hash", shortHash(e.Question)).
		Str("api_key_hash", shortHash(e.APIKey)).
		Str("sql_hash", shortHash(e.SQL)).
		Str("status", e.Status).
		Int("row_count", e.RowCount).
		Int64("duration_ms", e.DurationMs).
		Bool("dry_run", e.DryRun)
	if e.Error != "" {
		evt = evt.Str("error", e.Error)
	}
	evt.Msg("audit")
}

// LogRejected records a question refused before it reached the model
func (a *AuditLogger) LogRejected(question, apiKey, reason string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "question_rejected").
		Str("question_hash", shortHash(question)).
		Str("api_key_hash", shortHash(apiKey)).
		Str("reason", reason).
		Msg("audit")
}

// LogAgentRequest records a hosted agent conversation
func (a *AuditLogger) LogAgentRequest(prompt, apiKey string, toolCalls int, durationMs int64) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "agent_audit").
		Str("prompt_hash", shortHash(prompt)).
		Str("api_key_hash", shortHash(apiKey)).
		Int("tool_calls", toolCalls).
		Int64("duration_ms", durationMs).
		Msg("agent audit")
}

func shortHash(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}
