package security

import (
	"fmt"
	"regexp"
	"strings"
)

const MaxQuestionLength = 2000

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)new\s+(context|instructions)\s*:`),
	regexp.MustCompile(`(?i)system\s+prompt`),
	regexp.MustCompile(`(?i)instead\s+of\s+(the\s+)?(above|select)`),
	regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+table\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
	regexp.MustCompile(`(?i)\bpg_(sleep|read_file|ls_dir|shadow|authid)\b`),
	regexp.MustCompile(`(?i)\bcopy\s+.*\bto\s+program\b`),
	regexp.MustCompile(`;\s*--`),
}

// Words that tie a question to the facility tables
var domainKeywords = []string{
	"store", "stores", "shop", "distribution", "distribution center", "dc", "sort",
	"facility", "facilities", "center", "centre", "site", "location",
	"name", "display name", "latitude", "longitude", "coordinates",
	"cost", "variable cost", "capacity", "daily", "max", "schedule", "time",
	"how many", "count", "list", "show", "which", "what", "where", "top",
	"average", "total", "sum", "highest", "lowest", "most", "least",
}

// PromptValidator screens natural-language questions before they reach the model
type PromptValidator struct {
	requireDomainKeyword bool
}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{requireDomainKeyword: true}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks length, injection patterns and topicality
func (v *PromptValidator) Validate(question string) ValidationResult {
	if strings.TrimSpace(question) == "" {
		return ValidationResult{Message: "question cannot be empty"}
	}
	if len(question) > MaxQuestionLength {
		return ValidationResult{
			Message: fmt.Sprintf("question too long: %d chars (max %d)", len(question), MaxQuestionLength),
		}
	}

	for _, p := range injectionPatterns {
		if p.MatchString(question) {
			return ValidationResult{Message: "disallowed pattern detected: " + p.String()}
		}
	}

	if v.requireDomainKeyword && !mentionsDomain(question) {
		return ValidationResult{
			Message: "question must be about the distribution, sort or stores tables",
		}
	}
	return ValidationResult{Valid: true, Message: "ok"}
}

func mentionsDomain(question string) bool {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	joined := " " + strings.Join(words, " ") + " "
	for _, kw := range domainKeywords {
		if strings.Contains(joined, " "+kw+" ") {
			return true
		}
	}
	return false
}
