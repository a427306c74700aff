package logging

import (
	"regexp"
	"strings"
)

// Sensitive field names that should be redacted.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"credential",
	"session",
}

var (
	bearerPattern     = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]{8,}`)
	assignmentPattern = regexp.MustCompile(`(?i)(token|secret|password|passwd)(["']?\s*[=:]\s*["']?)([^\s"'&,}]+)`)
)

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces bearer credentials and token/password assignments in s.
func Redact(s string) string {
	result := bearerPattern.ReplaceAllString(s, RedactedValue)
	return assignmentPattern.ReplaceAllString(result, "${1}${2}"+RedactedValue)
}

// RedactMap redacts sensitive fields in a map.
func RedactMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))

	for k, v := range m {
		if IsSensitiveField(k) {
			result[k] = RedactedValue
		} else if nested, ok := v.(map[string]any); ok {
			result[k] = RedactMap(nested)
		} else if str, ok := v.(string); ok {
			result[k] = Redact(str)
		} else {
			result[k] = v
		}
	}

	return result
}

// RedactHeader returns value with credentials removed when name is a
// sensitive header such as Authorization.
func RedactHeader(name, value string) string {
	if IsSensitiveField(name) {
		if scheme, _, ok := strings.Cut(value, " "); ok {
			return scheme + " " + RedactedValue
		}
		return RedactedValue
	}
	return Redact(value)
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
