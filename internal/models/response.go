package models

import (
	"encoding/json"

	"github.com/optimusx/nl2sql/internal/nl2sql"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// TranslationResponse is returned by POST /api/v1/answer with dry_run set
type TranslationResponse struct {
	Status        string `json:"status"`
	SQL           string `json:"sql"`
	RawCompletion string `json:"raw_completion"`
}

// SchemaResponse is returned by GET /api/v1/schema
type SchemaResponse struct {
	Tables      []nl2sql.Table `json:"tables"`
	Description string         `json:"description"`
}

// ToolInfo describes one invocable tool
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolCall records one tool invocation made by the agent
type ToolCall struct {
	Name   string          `json:"name"`
	Input  json.RawMessage `json:"input"`
	Output json.RawMessage `json:"output"`
}

// AgentResponse is returned by POST /api/v1/agent
type AgentResponse struct {
	Status     string     `json:"status"`
	Prompt     string     `json:"prompt"`
	Answer     string     `json:"answer"`
	ToolCalls  []ToolCall `json:"tool_calls"`
	Iterations int        `json:"iterations"`
	Model      string     `json:"model"`
}
