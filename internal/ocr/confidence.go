package ocr

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LowConfidence is the score below which scanned pages are worth sending to
// a vision-capable drafter.
const LowConfidence = 0.6

var (
	reDate     = regexp.MustCompile(`\b[0-3]?\d[/.\-][01]?\d[/.\-](?:19|20)\d{2}\b`)
	reCurrency = regexp.MustCompile(`(?i)€|\beur(?:o)?\b`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(?:\.\d{3})+(?:,\d{2})?\b|\b\d+,\d{2}\b`)
	reLabels   = regexp.MustCompile(`(?i)\b(?:foglio|particella|subalterno|offerta|cauzione|proponente|descrizione|vendita)\b`)
	reJunk     = regexp.MustCompile(`[^\p{L}\d\s.,;:'’"€%/()\-]`)
)

// heuristicConfidence scores OCR output by the artifacts auction documents
// normally carry: dates, euro amounts and the usual field labels. Symbol
// soup lowers the score.
func heuristicConfidence(txt string) float32 {
	n := utf8.RuneCountInString(txt)
	if n == 0 {
		return 0
	}
	score := float32(0.2)
	if reDate.MatchString(txt) {
		score += 0.2
	}
	if reCurrency.MatchString(txt) {
		score += 0.15
	}
	if reAmount.MatchString(txt) {
		score += 0.15
	}
	if reLabels.MatchString(strings.ToLower(txt)) {
		score += 0.2
	}
	if n > 200 {
		score += 0.1
	}
	if junk := len(reJunk.FindAllStringIndex(txt, -1)); float32(junk)/float32(n) > 0.1 {
		score -= 0.3
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
