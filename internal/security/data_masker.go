package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailCol  = regexp.MustCompile(`(?i)e_?mail`)
	phoneCol  = regexp.MustCompile(`(?i)phone|mobile`)
	secretCol = regexp.MustCompile(`(?i)password|secret|token|api_key|private_key`)
)

// DataMasker hides values of sensitive columns in result rows
type DataMasker struct {
	sensitive []string
}

func NewDataMasker(sensitiveColumns []string) *DataMasker {
	cols := make([]string, 0, len(sensitiveColumns))
	for _, c := range sensitiveColumns {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cols = append(cols, c)
		}
	}
	return &DataMasker{sensitive: cols}
}

// MaskRows returns copies of rows with sensitive values replaced. The input
// is left untouched and a nil input stays nil.
func (m *DataMasker) MaskRows(rows []map[string]any) []map[string]any {
	if rows == nil {
		return nil
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		masked := make(map[string]any, len(row))
		for col, val := range row {
			if val != nil && m.Sensitive(col) {
				masked[col] = maskValue(col, fmt.Sprint(val))
				continue
			}
			masked[col] = val
		}
		out[i] = masked
	}
	return out
}

// Sensitive reports whether values of col are masked
func (m *DataMasker) Sensitive(col string) bool {
	lower := strings.ToLower(col)
	for _, s := range m.sensitive {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return secretCol.MatchString(col)
}

func maskValue(col, val string) string {
	switch {
	case emailCol.MatchString(col):
		return maskEmail(val)
	case phoneCol.MatchString(col):
		return maskDigits(val, "***-***-")
	default:
		return "***"
	}
}

// maskEmail keeps the first two characters and the top-level domain
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if len(local) > 2 {
		local = local[:2]
	}
	tld := domain[strings.LastIndex(domain, ".")+1:]
	return local + "***@***." + tld
}

func maskDigits(val, prefix string) string {
	var b strings.Builder
	for _, c := range val {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	if len(digits) < 4 {
		return prefix + "****"
	}
	return prefix + digits[len(digits)-4:]
}
