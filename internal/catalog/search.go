package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips combining marks so "Épée" matches "epee".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Matches reports whether query is a case- and diacritic-insensitive
// substring of any of the given fields. An empty query matches everything.
func Matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := fold(query)
	for _, f := range fields {
		if strings.Contains(fold(f), q) {
			return true
		}
	}
	return false
}
