package tools

import (
	"context"
	"fmt"
	"strings"
)

const NLToSQLToolName = "nl_to_sql_and_execute"

// NLToSQLTool answers a question end to end and returns the ExecutionResult
// as JSON. Pipeline failures are part of the result, not tool errors.
func NLToSQLTool(a Answerer) Tool {
	return Tool{
		Name: NLToSQLToolName,
		Description: "Convert a natural language question into a PostgreSQL query over the distribution, " +
			"sort and stores tables, run it, and return the query together with its result rows.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question about distribution centers, sort facilities or stores",
				},
			},
			"required": []string{"question"},
		},
		Execute: func(ctx context.Context, input map[string]any) (string, error) {
			question, _ := input["question"].(string)
			if strings.TrimSpace(question) == "" {
				return "", fmt.Errorf("question is required")
			}
			return toJSON(a.Answer(ctx, question))
		},
	}
}
