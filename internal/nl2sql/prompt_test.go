package nl2sql_test

import (
	"strings"
	"testing"

	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	p := nl2sql.BuildPrompt("List all store names")

	assert.Contains(t, p, "Question: List all store names")
	assert.Contains(t, p, "PostgreSQL dialect")
	assert.Contains(t, p, "Do not use DROP, DELETE, UPDATE, or INSERT")
	assert.Contains(t, p, "Only generate the SQL query, nothing else.")
	for _, table := range []string{"distribution", "sort", "stores"} {
		assert.Contains(t, p, "- "+table+"(name, display_name, latitude, longitude, variable_cost, daily_max_capacity, schedule_time)")
	}
	assert.True(t, strings.HasSuffix(p, "SQL:\n"))
	assert.Equal(t, p, nl2sql.BuildPrompt("List all store names"), "prompt must be deterministic")
}

func TestTablesReturnsCopy(t *testing.T) {
	first := nl2sql.Tables()
	require.Len(t, first, 3)
	first[0].Columns[0] = "mutated"

	second := nl2sql.Tables()
	assert.Equal(t, "name", second[0].Columns[0])
	assert.Equal(t, []string{"distribution", "sort", "stores"}, []string{second[0].Name, second[1].Name, second[2].Name})
}
