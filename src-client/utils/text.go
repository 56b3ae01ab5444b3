package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// strips spaces, uppercase first letter of each word, remove trailing period
func CleanupString(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.English, cases.NoLower).String(s)
	s = strings.TrimSuffix(s, ".")
	return s
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
// Discord rejects embed fields above fixed lengths.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
