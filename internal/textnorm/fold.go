package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSlugSep = regexp.MustCompile(`[^a-zA-Z0-9]+`)

const maxSlugLen = 140

// Fold strips diacritics ("sì" -> "si", "Città" -> "Citta").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug turns s into a lowercase, dash-separated file-name fragment of at most
// 140 characters.
func Slug(s string) string {
	s = reSlugSep.ReplaceAllString(Fold(s), "-")
	s = strings.ToLower(strings.Trim(s, "-"))
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}
