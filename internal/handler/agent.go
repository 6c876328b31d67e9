package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/optimusx/nl2sql/internal/agent"
	"github.com/optimusx/nl2sql/internal/middleware"
	"github.com/optimusx/nl2sql/internal/models"
	"github.com/rs/zerolog/log"
)

// Runner is the hosted agent
type Runner interface {
	Run(ctx context.Context, prompt string) (agent.Result, error)
	Model() string
}

// AgentHandler handles POST /api/v1/agent
type AgentHandler struct {
	runner Runner
	guards Guards
}

// NewAgentHandler accepts a nil runner; requests then get 503
func NewAgentHandler(runner Runner, guards Guards) *AgentHandler {
	return &AgentHandler{runner: runner, guards: guards}
}

func (h *AgentHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}

	var req models.AgentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Prompt == "" {
		models.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	apiKey := middleware.APIKey(r.Context())
	if reason := h.guards.Screen(req.Prompt); reason != "" {
		h.guards.audit().LogRejected(req.Prompt, apiKey, reason)
		models.WriteError(w, http.StatusBadRequest, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := h.runner.Run(ctx, req.Prompt)
	h.guards.audit().LogAgentRequest(req.Prompt, apiKey, len(res.Calls), time.Since(start).Milliseconds())
	if err != nil {
		log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(r.Context())).Msg("agent run failed")
		models.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	calls := make([]models.ToolCall, 0, len(res.Calls))
	for _, c := range res.Calls {
		input, _ := json.Marshal(c.Input)
		output := json.RawMessage(c.Output)
		if !json.Valid(output) {
			output, _ = json.Marshal(c.Output)
		}
		calls = append(calls, models.ToolCall{Name: c.Name, Input: input, Output: output})
	}

	models.WriteJSON(w, http.StatusOK, models.AgentResponse{
		Status:     "success",
		Prompt:     req.Prompt,
		Answer:     res.Answer,
		ToolCalls:  calls,
		Iterations: res.Iterations,
		Model:      h.runner.Model(),
	})
}
