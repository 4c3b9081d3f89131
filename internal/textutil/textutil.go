// Package textutil provides small string helpers for CLI output.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HumanizeIdentifier turns a camelCase identifier into a title-cased label,
// e.g. "tableWorkState" becomes "Table Work State".
func HumanizeIdentifier(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range trimmed {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.Und).String(b.String())
}

// Truncate shortens a string to at most max runes, appending an ellipsis when
// anything was cut. Values of max below 4 return the untruncated string.
func Truncate(value string, max int) string {
	if max < 4 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}
