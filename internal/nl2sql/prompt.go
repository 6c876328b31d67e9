package nl2sql

import (
	"fmt"
	"strings"
)

// Table describes one of the fixed operational tables the model may query
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

var facilityColumns = []string{
	"name", "display_name", "latitude", "longitude",
	"variable_cost", "daily_max_capacity", "schedule_time",
}

var tables = []Table{
	{Name: "distribution", Columns: facilityColumns},
	{Name: "sort", Columns: facilityColumns},
	{Name: "stores", Columns: facilityColumns},
}

// Tables returns a copy of the hardcoded schema
func Tables() []Table {
	out := make([]Table, len(tables))
	for i, t := range tables {
		out[i] = Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	}
	return out
}

// SchemaDescription renders the schema the way it is handed to the model
func SchemaDescription() string {
	var sb strings.Builder
	sb.WriteString("\nTables and columns:\n")
	for _, t := range tables {
		sb.WriteString(fmt.Sprintf("- %s(%s)\n", t.Name, strings.Join(t.Columns, ", ")))
	}
	return sb.String()
}

const instruction = "You are an expert SQL generator. Given a question and the following table schema, " +
	"write a safe SQL SELECT query (PostgreSQL dialect) that answers the question. " +
	"Only use the tables and columns provided. Do not use DROP, DELETE, UPDATE, or INSERT. " +
	"Only generate the SQL query, nothing else."

// BuildPrompt combines the instruction, the schema and the question
func BuildPrompt(question string) string {
	return fmt.Sprintf("\n%s\n\nSchema:\n%s\n\nQuestion: %s\nSQL:\n", instruction, SchemaDescription(), question)
}
