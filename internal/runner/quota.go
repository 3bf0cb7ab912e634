package runner

import "regexp"

// QuotaPatterns match the diagnostics the wrapped tool emits when an
// account's free quota is exhausted. Matching any of them marks a failure
// as rotation-worthy rather than a plain error.
var QuotaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)quota\s+(exceeded|exhausted|limit)`),
	regexp.MustCompile(`(?i)rate\s*limit`),
	regexp.MustCompile(`(?i)too\s+many\s+requests`),
	regexp.MustCompile(`(?i)resource[_\s]+exhausted`),
	regexp.MustCompile(`\b429\b`),
	regexp.MustCompile(`(?i)free\s+(tier|allocated)\s+quota`),
}

// IsQuotaError reports whether a failure diagnostic looks like quota
// exhaustion.
func IsQuotaError(diagnostic string) bool {
	if diagnostic == "" {
		return false
	}
	for _, pattern := range QuotaPatterns {
		if pattern.MatchString(diagnostic) {
			return true
		}
	}
	return false
}
