package models

import "strings"

// AnswerRequest for POST /api/v1/answer
type AnswerRequest struct {
	Question string `json:"question"`
	DryRun   bool   `json:"dry_run"`
}

func (r *AnswerRequest) SetDefaults() {
	r.Question = strings.TrimSpace(r.Question)
}

// AgentRequest for POST /api/v1/agent
type AgentRequest struct {
	Prompt  string `json:"prompt"`
	Timeout int    `json:"timeout"` // seconds
}

func (r *AgentRequest) SetDefaults() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Timeout == 0 {
		r.Timeout = 300
	}
	if r.Timeout < 10 {
		r.Timeout = 10
	}
	if r.Timeout > 600 {
		r.Timeout = 600
	}
}
