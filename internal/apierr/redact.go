package apierr

import "strings"

// DebugHint is appended to user-facing messages when --debug is off.
const DebugHint = " (try --debug for details)"

// WithDebugHint suffixes msg with DebugHint unless debug output is enabled.
func WithDebugHint(msg string, debug bool) string {
	if debug {
		return msg
	}
	return msg + DebugHint
}

// RedactSecret keeps the first and last three bytes of s and masks the rest.
// Inputs of six bytes or fewer come back unchanged.
func RedactSecret(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if i < 3 || i+3 >= len(s) {
			b.WriteByte(s[i])
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}

// Redact replaces every occurrence of secret in text with its redacted form.
func Redact(text, secret string) string {
	if secret == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, RedactSecret(secret))
}
