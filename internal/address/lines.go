package address

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/astadocs/internal/textnorm"
)

var (
	reHasKeyword    = regexp.MustCompile(`(?i)\b(?:` + keywords + `)\b`)
	reTimestampLine = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}[,\s]`)
	reAtAuction     = regexp.MustCompile(`(?i)all['’]asta`)
	reDigit         = regexp.MustCompile(`\d`)
	reAuctionTitle  = regexp.MustCompile(`(?i)^appartamento\s+all['’]asta`)

	addrCore = `(?:` + keywords + `)\s+` + nameClass + `+\s*,?\s*\d+[a-z]?`

	// Ordered: explicit "immobile sito in ..." phrasing first, then the
	// object of the offer, then any street with a house number.
	proposalAddressPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:immobile|bene|lotto)\s+(?:sito|posto|in)\s+(` + addrCore + `.*?)(?:\n|$|\.|,)`),
		regexp.MustCompile(`(?i)(?:oggetto\s+dell['’]?offerta|ad\s+oggetto)\s+(` + addrCore + `.*?)(?:\n|$|\.|,)`),
		regexp.MustCompile(`(?i)\b(` + addrCore + `)(?:\s*,\s*` + nameClass + `+)?`),
	}
)

// SelectLine picks the address line of a listing page. Lines starting with a
// browser print timestamp are skipped; a line mentioning "all'asta" with a
// street keyword and a comma is preferred, then the longest street line
// carrying a digit or comma, then the "Appartamento all'asta" title.
func SelectLine(text string) *string {
	lines := textnorm.SplitLines(text)
	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		if !reTimestampLine.MatchString(l) {
			clean = append(clean, l)
		}
	}

	for _, l := range clean {
		if reAtAuction.MatchString(l) && reHasKeyword.MatchString(l) && strings.Contains(l, ",") {
			return &l
		}
	}

	var candidates []string
	for _, l := range clean {
		if reHasKeyword.MatchString(l) && (reDigit.MatchString(l) || strings.Contains(l, ",")) {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return len(candidates[i]) > len(candidates[j])
		})
		return &candidates[0]
	}

	for _, l := range lines {
		if reAuctionTitle.MatchString(l) {
			return &l
		}
	}
	return nil
}

// FindInProposal locates the property address inside proposal prose.
func FindInProposal(text string) *string {
	for _, re := range proposalAddressPatterns {
		if m := re.FindStringSubmatch(text); m != nil && m[1] != "" {
			s := reSpaces.ReplaceAllString(strings.TrimSpace(m[1]), " ")
			return &s
		}
	}
	return nil
}
