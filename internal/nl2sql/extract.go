package nl2sql

import (
	"regexp"
	"strings"
)

var (
	// Fence markers: "```sql" or "```" opening a line, "```" closing one.
	reFence = regexp.MustCompile("(?m)^```sql|^```|```$")
	// Shortest SELECT ... ; run, may span lines.
	reSelect = regexp.MustCompile(`(?i)SELECT[\s\S]+?;`)
)

// Extract isolates a single candidate statement from a model completion.
//
// Markdown fences are stripped, then the first SELECT ... ; is taken. When no
// such statement exists the whole cleaned text is returned, so a refusal or a
// diagnostic string from the model client reaches the database as-is and fails
// there. Whitespace runs are collapsed to single spaces in either case.
func Extract(raw string) string {
	cleaned := strings.TrimSpace(reFence.ReplaceAllString(raw, ""))

	candidate := cleaned
	if m := reSelect.FindString(cleaned); m != "" {
		candidate = strings.TrimSpace(m)
	}
	return collapseWhitespace(candidate)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
