package security

import (
	"regexp"
	"unicode/utf8"

	"github.com/kailas-cloud/esquery/internal/domain"
)

// dangerousPatterns match regex shapes prone to catastrophic backtracking
// in the engine: consecutive wildcards and quantified wildcard groups.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\.\*){2,}`),
	regexp.MustCompile(`\(\.\*\)[+*{]`),
	regexp.MustCompile(`\(\.\+\)[+*{]`),
}

// SanitizeQueryString checks s against maxLength, then against the
// dangerous-pattern denylist. s is returned unchanged on success.
func SanitizeQueryString(s string, maxLength int) (string, error) {
	if n := utf8.RuneCountInString(s); n > maxLength {
		return "", &domain.LimitError{Kind: domain.LimitQueryString, Subject: "query", Limit: maxLength, Actual: n}
	}
	for _, p := range dangerousPatterns {
		if p.MatchString(s) {
			return "", &domain.PatternError{Pattern: p.String()}
		}
	}
	return s, nil
}
