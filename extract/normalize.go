// Package extract pulls article fields out of parsed HTML documents using
// ordered lists of structural probes.
package extract

import (
	"regexp"
	"strings"
)

// disallowed matches everything outside letters and digits of any script,
// whitespace and the punctuation found in French and English news copy.
var disallowed = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s.,;:!?'"()\[\]/%&@#€$£+*=«»’‘“”…–—-]`)

// Normalize collapses whitespace runs to single spaces, trims the result and
// strips characters outside the allow-list. It never fails; empty input
// yields empty output.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = disallowed.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// WordCount returns the number of whitespace-separated tokens in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
