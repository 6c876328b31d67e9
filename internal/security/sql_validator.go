package security

import (
	"regexp"
	"strings"
)

var statementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(DROP|DELETE|INSERT|UPDATE|ALTER|CREATE|TRUNCATE|GRANT|REVOKE|COPY)\s+`),
	regexp.MustCompile(`(?i)\bINTO\s+(OUTFILE|DUMPFILE)\b`),
	regexp.MustCompile(`(?i)\bSELECT\b[^;]*\bINTO\s+\w+`),
	regexp.MustCompile(`(?i)\bpg_(sleep|read_file|read_binary_file|ls_dir|terminate_backend|cancel_backend)\s*\(`),
	regexp.MustCompile(`(?i)\bdblink\w*\s*\(`),
	regexp.MustCompile(`(?i)\blo_(import|export)\s*\(`),
	regexp.MustCompile(`(?i)\bset_config\s*\(`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bor\s+'1'\s*=\s*'1'`),
}

var (
	relationRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+((?:"[^"]+"|[A-Za-z_]\w*)(?:\.(?:"[^"]+"|[A-Za-z_]\w*))*)`)
	// functions whose argument syntax contains FROM
	fromCallRe = regexp.MustCompile(`(?i)\b(?:EXTRACT|SUBSTRING|TRIM|OVERLAY|POSITION)\s*\([^()]*(?:\([^()]*\)[^()]*)*\)`)
)

// SQLValidator rejects generated statements that are not a single read-only
// query over the known tables.
type SQLValidator struct {
	tables map[string]bool
}

// NewSQLValidator allows only the given relation names. An empty list skips
// the relation check.
func NewSQLValidator(tables []string) *SQLValidator {
	v := &SQLValidator{tables: make(map[string]bool, len(tables))}
	for _, t := range tables {
		v.tables[strings.ToLower(t)] = true
	}
	return v
}

// Validate returns a reason when sql is rejected, or "" when it may run
func (v *SQLValidator) Validate(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "SQL cannot be empty"
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "only SELECT queries are allowed"
	}

	body := strings.TrimSuffix(trimmed, ";")
	if strings.Contains(body, ";") {
		return "multiple statements are not allowed"
	}

	for _, p := range statementPatterns {
		if p.MatchString(trimmed) {
			return "disallowed pattern detected: " + p.String()
		}
	}

	if len(v.tables) > 0 {
		ctes := cteNames(trimmed)
		scan := fromCallRe.ReplaceAllString(trimmed, "")
		for _, m := range relationRe.FindAllStringSubmatch(scan, -1) {
			parts := strings.Split(m[1], ".")
			name := strings.ToLower(strings.Trim(parts[len(parts)-1], `"`))
			if !v.tables[name] && !ctes[name] {
				return "unknown table: " + name
			}
		}
	}
	return ""
}

var cteRe = regexp.MustCompile(`(?i)(?:\bWITH|,)\s+(?:RECURSIVE\s+)?([A-Za-z_]\w*)\s+AS\s*\(`)

func cteNames(sql string) map[string]bool {
	names := map[string]bool{}
	for _, m := range cteRe.FindAllStringSubmatch(sql, -1) {
		names[strings.ToLower(m[1])] = true
	}
	return names
}
