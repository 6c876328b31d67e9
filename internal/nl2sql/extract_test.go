package nl2sql_test

import (
	"testing"

	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced sql block", "```sql\nSELECT * FROM stores;\n```", "SELECT * FROM stores;"},
		{"bare fence", "```\nSELECT name FROM sort;\n```", "SELECT name FROM sort;"},
		{"uppercase tag", "```SQL\nSELECT 1;\n```", "SELECT 1;"},
		{"closing fence on same line", "SELECT name FROM stores;```", "SELECT name FROM stores;"},
		{"two statements", "SELECT a FROM t; SELECT b FROM t;", "SELECT a FROM t;"},
		{"no select", "I cannot help with that.", "I cannot help with that."},
		{"whitespace collapse", "SELECT  \n  name\nFROM stores;", "SELECT name FROM stores;"},
		{"lowercase keyword", "select name from stores;", "select name from stores;"},
		{
			"prose around statement",
			"Here is the query:\nSELECT name\nFROM distribution\nWHERE daily_max_capacity > 100;\nLet me know.",
			"SELECT name FROM distribution WHERE daily_max_capacity > 100;",
		},
		{"no semicolon falls back to whole text", "SELECT name FROM stores", "SELECT name FROM stores"},
		{
			"diagnostic text passes through",
			"Received an unexpected response format from Gemini API.",
			"Received an unexpected response format from Gemini API.",
		},
		{"multiline refusal collapsed", "Sorry,\n\n  I can't.", "Sorry, I can't."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nl2sql.Extract(tt.raw))
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	inputs := []string{
		"```sql\nSELECT name, latitude\nFROM stores\nORDER BY name;\n```",
		"SELECT COUNT(*) FROM sort;",
		"SELECT a FROM t; SELECT b FROM t;",
		"select   display_name from distribution where variable_cost < 5;",
	}
	for _, in := range inputs {
		once := nl2sql.Extract(in)
		assert.Equal(t, once, nl2sql.Extract(once), "input %q", in)
	}
}
