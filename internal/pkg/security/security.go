// Package security provides log sanitization and secret masking.
package security

import (
	"strings"
	"unicode"
)

// DefaultLogLength bounds sanitized strings.
const DefaultLogLength = 200

// SanitizeForLog escapes line breaks, drops other control characters and
// truncates to DefaultLogLength. Model responses go through it before they
// reach a log line.
func SanitizeForLog(s string) string {
	return SanitizeForLogWithLength(s, DefaultLogLength)
}

// SanitizeForLogWithLength sanitizes a string for logging with a custom max length.
func SanitizeForLogWithLength(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLen+10))

	count := 0
	for _, r := range s {
		if count >= maxLen {
			b.WriteString("...")
			break
		}

		switch r {
		case '\n':
			b.WriteString("\\n")
			count += 2
		case '\r':
			b.WriteString("\\r")
			count += 2
		case '\t':
			b.WriteString("\\t")
			count += 2
		default:
			if !unicode.IsControl(r) {
				b.WriteRune(r)
				count++
			}
		}
	}

	return b.String()
}

// MaskSecret keeps the last four characters of a credential. Short or
// empty values are fully masked.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}
