// Package agent hosts a tool-calling assistant that answers questions about
// the facility tables by calling the nl_to_sql_and_execute tool.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/optimusx/nl2sql/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	Name = "NL2SQL_Agent"

	Instruction = "You are a helpful agent that takes user questions about the 'distribution', 'sort', " +
		"and 'stores' tables, generates SQL, executes it, and returns the results."

	DefaultModel = "claude-sonnet-4-6"

	maxIterations    = 10
	forceAnswerAfter = 7
	finalAnswerNudge = "You have enough data. Please provide your final answer now without calling any more tools."
)

// Call is one tool invocation made during a run
type Call struct {
	ID     string
	Name   string
	Input  map[string]any
	Output string
	Failed bool
}

// Result is the outcome of one agent run
type Result struct {
	Answer     string
	Calls      []Call
	Iterations int
}

// Agent drives the Anthropic Messages API in a tool loop
type Agent struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	tools     *tools.Registry
}

// New builds an agent; baseURL overrides the API host (compatible providers, tests)
func New(apiKey, model, baseURL string, registry *tools.Registry) *Agent {
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Agent{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
		tools:     registry,
	}
}

func (a *Agent) Model() string { return a.model }

// Run answers prompt, calling tools until the model stops asking for them.
// After forceAnswerAfter iterations the model is told to answer without tools.
func (a *Agent) Run(ctx context.Context, prompt string) (Result, error) {
	var res Result
	toolParams := a.toolParams()
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	for iter := 0; iter < maxIterations; iter++ {
		res.Iterations = iter + 1

		resp, err := a.client.Messages.New(ctx, a.params(messages, toolParams))
		if err != nil {
			return res, fmt.Errorf("agent model call: %w", err)
		}

		text, pending := splitContent(resp)

		log.Debug().
			Int("iter", iter).
			Str("stop_reason", string(resp.StopReason)).
			Int("tool_calls", len(pending)).
			Msg("agent iteration")

		if resp.StopReason != "tool_use" || len(pending) == 0 {
			res.Answer = text
			return res, nil
		}

		messages = append(messages, resp.ToParam())

		results := make([]anthropic.ContentBlockParamUnion, 0, len(pending)+1)
		for _, call := range pending {
			out, err := a.tools.Invoke(ctx, call.Name, call.Input)
			if err != nil {
				log.Warn().Err(err).Str("tool", call.Name).Msg("tool call failed")
				out = "error: " + err.Error()
				call.Failed = true
			}
			call.Output = out
			res.Calls = append(res.Calls, call)
			results = append(results, anthropic.NewToolResultBlock(call.ID, out, call.Failed))
		}

		if iter >= forceAnswerAfter {
			// tool results and the nudge share one user turn
			results = append(results, anthropic.NewTextBlock(finalAnswerNudge))
			messages = append(messages, anthropic.NewUserMessage(results...))
			final, err := a.client.Messages.New(ctx, a.params(messages, nil))
			if err != nil {
				return res, fmt.Errorf("agent final answer: %w", err)
			}
			res.Iterations++
			res.Answer, _ = splitContent(final)
			return res, nil
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	return res, fmt.Errorf("agent exceeded %d iterations", maxIterations)
}

func (a *Agent) params(messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) anthropic.MessageNewParams {
	p := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(a.maxTokens),
		System:    anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(Instruction)}),
		Messages:  anthropic.F(messages),
	}
	if len(toolParams) > 0 {
		p.Tools = anthropic.F(toolParams)
	}
	return p
}

func (a *Agent) toolParams() []anthropic.ToolUnionUnionParam {
	list := a.tools.List()
	out := make([]anthropic.ToolUnionUnionParam, len(list))
	for i, t := range list {
		schema := map[string]any{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		out[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[any](schema),
		}
	}
	return out
}

func splitContent(resp *anthropic.Message) (string, []Call) {
	var sb strings.Builder
	var calls []Call
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			input := map[string]any{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("unparseable tool input")
			}
			calls = append(calls, Call{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return sb.String(), calls
}
