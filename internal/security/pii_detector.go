package security

import (
	"regexp"
	"strings"
)

// PIIDetector flags questions that ask for personal or secret data. The
// facility tables hold none, so such a question is either a mistake or a probe.
type PIIDetector struct {
	keywords []string
	patterns []*regexp.Regexp
}

func NewPIIDetector(keywords []string) *PIIDetector {
	d := &PIIDetector{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		d.keywords = append(d.keywords, k)
		d.patterns = append(d.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
	}
	return d
}

// Detect returns the first keyword found in text as a whole word
func (d *PIIDetector) Detect(text string) (string, bool) {
	lower := strings.ToLower(text)
	for i, re := range d.patterns {
		if re.MatchString(lower) {
			return d.keywords[i], true
		}
	}
	return "", false
}
