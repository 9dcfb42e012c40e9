package constants

import "strings"

// DocKind identifies which template a source document follows.
type DocKind string

const (
	DocKindListing  DocKind = "annuncio"
	DocKindProposal DocKind = "proposta"
)

// ParseDocKind accepts the Italian and English names of a document kind.
func ParseDocKind(input string) (DocKind, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "annuncio", "listing":
		return DocKindListing, true
	case "proposta", "proposal":
		return DocKindProposal, true
	}
	return "", false
}

// SaleType is the canonical auction sale modality.
type SaleType string

const (
	SaleTypeWithoutAuction SaleType = "Senza incanto"
	SaleTypeCompetitive    SaleType = "Competitiva"
	SaleTypeSyncMixed      SaleType = "Sincrona mista"
	SaleTypeOnlineAsync    SaleType = "Telematica asincrona"
)

// saleTypePatterns is ordered: the first matching keyword pair wins.
var saleTypePatterns = []struct {
	words []string
	kind  SaleType
}{
	{[]string{"senza", "incanto"}, SaleTypeWithoutAuction},
	{[]string{"competitiva"}, SaleTypeCompetitive},
	{[]string{"sincrona", "mista"}, SaleTypeSyncMixed},
	{[]string{"telematica", "asincrona"}, SaleTypeOnlineAsync},
}

// CanonicalSaleType maps free text to a known sale type. The keywords must
// appear in order; unknown values are returned trimmed with ok=false.
func CanonicalSaleType(input string) (SaleType, bool) {
	lower := strings.ToLower(input)
	for _, p := range saleTypePatterns {
		if containsInOrder(lower, p.words) {
			return p.kind, true
		}
	}
	return SaleType(strings.TrimSpace(input)), false
}

func containsInOrder(s string, words []string) bool {
	for _, w := range words {
		i := strings.Index(s, w)
		if i < 0 {
			return false
		}
		s = s[i+len(w):]
	}
	return true
}
