package strings

import (
	"strings"
	"unicode"
)

// SnakeCase converts an identifier to snake_case the way the probe and
// dashboard tooling names BigQuery columns and Looker fields: dashes, dots and
// whitespace become underscores and every uppercase letter after the first
// rune is lowered and prefixed with an underscore.
//
//	SnakeCase("browser.engagement.active_ticks") == "browser_engagement_active_ticks"
//	SnakeCase("deletion-request") == "deletion_request"
//	SnakeCase("fooBar") == "foo_bar"
func SnakeCase(s string) string {
	if s == "" {
		return s
	}

	var result strings.Builder
	for i, r := range []rune(s) {
		switch {
		case r == '-' || r == '.' || unicode.IsSpace(r):
			result.WriteRune('_')
		case i == 0:
			result.WriteRune(unicode.ToLower(r))
		case r >= 'A' && r <= 'Z':
			result.WriteRune('_')
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ETLSnakeCase converts a string to snake_case with the word-boundary rules
// used by the data warehouse ETL (bigquery-etl), which GLAM uses to key its
// probes. Unlike SnakeCase it understands acronyms and digits:
//
//	ETLSnakeCase("a11y.HTTPRequest") == "a11y_http_request"
//
// The string is scanned in reverse so that camelCase boundaries can be found
// with a fixed amount of look-behind.
func ETLSnakeCase(s string) string {
	runes := []rune(s)
	rev := make([]rune, len(runes))
	for i, r := range runes {
		if r == '_' || !isWordRune(r) {
			r = ' '
		}
		rev[len(runes)-1-i] = r
	}

	var words []string
	start := 0
	for i := 1; i < len(rev); i++ {
		if isETLBoundary(rev, i) {
			words = appendWord(words, rev[start:i])
			start = i
		}
	}
	words = appendWord(words, rev[start:])

	joined := []rune(strings.Join(words, "_"))
	for i, j := 0, len(joined)-1; i < j; i, j = i+1, j-1 {
		joined[i], joined[j] = joined[j], joined[i]
	}
	return string(joined)
}

// ResourcePath turns a dotted identifier into something a static file server
// will not mistake for a file extension.
func ResourcePath(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

func appendWord(words []string, segment []rune) []string {
	word := strings.TrimSpace(string(segment))
	if word == "" {
		return words
	}
	return append(words, strings.ToLower(word))
}

// isETLBoundary reports whether the reversed string splits between rev[i-1]
// and rev[i].
func isETLBoundary(rev []rune, i int) bool {
	if isWordRune(rev[i-1]) != isWordRune(rev[i]) {
		return true
	}

	// skip any run of digits to find the letter that decides the boundary
	j := i
	for j < len(rev) && unicode.IsDigit(rev[j]) {
		j++
	}
	if j == len(rev) {
		return false
	}
	next := rev[j]

	if i >= 2 && isLowerASCII(rev[i-2]) && isUpperASCII(rev[i-1]) {
		if isUpperASCII(next) || isLowerASCII(next) {
			return true
		}
	}
	return isUpperASCII(rev[i-1]) && isLowerASCII(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLowerASCII(r rune) bool { return r >= 'a' && r <= 'z' }

func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }
