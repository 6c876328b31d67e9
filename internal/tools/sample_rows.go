package tools

import (
	"context"
	"fmt"

	"github.com/optimusx/nl2sql/internal/nl2sql"
)

const sampleLimit = 3

// SampleRowsTool fetches a few rows from one of the known tables so the agent
// can see real values before phrasing a question.
func SampleRowsTool(exec nl2sql.Executor) Tool {
	names := make([]string, 0, 3)
	for _, t := range nl2sql.Tables() {
		names = append(names, t.Name)
	}

	return Tool{
		Name:        "sample_rows",
		Description: fmt.Sprintf("Get %d sample rows from one table to see actual names, capacities and schedule formats.", sampleLimit),
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"table": map[string]any{
					"type":        "string",
					"enum":        names,
					"description": "Table to sample",
				},
			},
			"required": []string{"table"},
		},
		Execute: func(ctx context.Context, input map[string]any) (string, error) {
			table, _ := input["table"].(string)
			if !knownTable(table) {
				return "", fmt.Errorf("table must be one of %v", names)
			}

			// table is from the fixed list, never user text
			res := exec.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d;", table, sampleLimit))
			if !res.OK() {
				return "", fmt.Errorf("sample %s: %s", table, res.ErrorMessage)
			}
			return toJSON(map[string]any{
				"table":   table,
				"columns": res.Columns,
				"sample":  res.Results,
			})
		},
	}
}

func knownTable(name string) bool {
	for _, t := range nl2sql.Tables() {
		if t.Name == name {
			return true
		}
	}
	return false
}
