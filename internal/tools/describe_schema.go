package tools

import (
	"context"

	"github.com/optimusx/nl2sql/internal/nl2sql"
)

// DescribeSchemaTool returns the tables and columns questions can refer to
func DescribeSchemaTool() Tool {
	return Tool{
		Name:        "describe_schema",
		Description: "List the tables and columns available for questions. Takes no input.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Execute: func(ctx context.Context, input map[string]any) (string, error) {
			return toJSON(map[string]any{
				"tables":      nl2sql.Tables(),
				"description": nl2sql.SchemaDescription(),
			})
		},
	}
}
