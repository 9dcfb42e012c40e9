// Package address splits Italian street addresses into street, house number
// and locality, tolerating descriptive prefixes, postal codes (CAP) and
// several token orders.
package address

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

// keywords are the street-type tokens; longer forms precede their prefixes.
const keywords = `viale|via|piazzale|piazza|corso|largo|vicolo|vico|contrada|strada|borgo`

const (
	nameClass     = `[\p{L}'’.\- ]`
	localityClass = `[\p{L}'’.\-() ]`
	numberPattern = `\d+(?:/?[a-z])?`
)

var (
	reAuctionPrefix = regexp.MustCompile(`(?i)^appartamento\s+all['’]asta\s*`)
	reCountry       = regexp.MustCompile(`(?i)\bItalia\b`)
	reDashSep       = regexp.MustCompile(`\s+-\s*|\s*-\s+`)
	reDoubleComma   = regexp.MustCompile(`\s*,\s*,`)
	reSpaces        = regexp.MustCompile(`\s{2,}`)
	reCAP           = regexp.MustCompile(`\b\d{5}\b`)
	reFiveDigits    = regexp.MustCompile(`^\d{5}$`)
	reAfterComma    = regexp.MustCompile(`\s*,.*$`)

	// Descriptive phrases that may precede a locality in the reversed form
	// ("Villa in vendita a Monza, Via ...").
	reDescriptor = regexp.MustCompile(`(?i)^(?:appartamento|villa|villetta|box|garage|negozio|ufficio|immobile|terreno|casa|magazzino|capannone|lotto)\b[^,]*\b(?:a|in)\b\s*`)

	reCanonical = regexp.MustCompile(`(?i)\b(` + keywords + `)\s+(` + nameClass + `+?)\s*,?\s*(` + numberPattern + `)\b\s*,?\s*(?:\b\d{5}\b\s*)?(` + localityClass + `+)$`)

	reNumberAfterLocality = regexp.MustCompile(`(?i)\b(` + keywords + `)\s+(` + nameClass + `+).*?\b(\d{5})\b\s+([\p{L}'’\- ]+?)\s+(` + numberPattern + `)\b`)

	reStreetOnly = regexp.MustCompile(`(?i)^(` + keywords + `)\s+(` + nameClass + `+?)\s*,?\s*(` + numberPattern + `)$`)

	reKeywordAt   = regexp.MustCompile(`(?i)\b(?:` + keywords + `)\s+`)
	reStreetHead  = regexp.MustCompile(`(?i)^(` + keywords + `)\s+(` + nameClass + `+)`)
	reLeadingNum  = regexp.MustCompile(`(?i)^\s*,?\s*(` + numberPattern + `)\b`)
	reBareStreet  = regexp.MustCompile(`(?i)\b(` + keywords + `)\s+(` + nameClass + `+)`)
	reShortNumber = regexp.MustCompile(`(?i)\b(\d{1,4}[a-z]?)\b`)
)

// parsed is the intermediate result of a strategy before post-processing.
type parsed struct {
	keyword  string
	name     string
	number   string
	locality string
	street   string // used when no keyword was recognised
}

// strategies are tried in order; the first one that yields a result wins.
var strategies = []utils.Strategy[parsed]{
	{
		Name:  "canonical",
		Match: submatch(reCanonical),
		Extract: func(m []string) (parsed, bool) {
			return parsed{keyword: m[1], name: m[2], number: m[3], locality: m[4]}, true
		},
	},
	{
		Name:  "number-after-locality",
		Match: submatch(reNumberAfterLocality),
		Extract: func(m []string) (parsed, bool) {
			return parsed{keyword: m[1], name: m[2], number: m[5], locality: m[4]}, true
		},
	},
	{
		Name:  "street-only",
		Match: submatch(reStreetOnly),
		Extract: func(m []string) (parsed, bool) {
			return parsed{keyword: m[1], name: m[2], number: m[3]}, true
		},
	},
	{
		Name:    "reversed",
		Match:   splitAtKeyword,
		Extract: extractReversed,
	},
	{
		Name:    "comma-fallback",
		Match:   commaSegments,
		Extract: extractCommaFallback,
	},
}

func submatch(re *regexp.Regexp) func(string) ([]string, bool) {
	return func(s string) ([]string, bool) {
		m := re.FindStringSubmatch(s)
		return m, m != nil
	}
}

// splitAtKeyword returns [prefix, rest] around the first street keyword when
// something precedes it.
func splitAtKeyword(s string) ([]string, bool) {
	loc := reKeywordAt.FindStringIndex(s)
	if loc == nil || loc[0] == 0 {
		return nil, false
	}
	return []string{s[:loc[0]], s[loc[0]:]}, true
}

func extractReversed(caps []string) (parsed, bool) {
	locality := reDescriptor.ReplaceAllString(strings.TrimSpace(caps[0]), "")
	locality = strings.Trim(reCAP.ReplaceAllString(locality, ""), " ,;:")
	if locality == "" {
		return parsed{}, false
	}
	head := reStreetHead.FindStringSubmatch(caps[1])
	if head == nil {
		return parsed{}, false
	}
	p := parsed{keyword: head[1], name: head[2], locality: locality}
	if n := reLeadingNum.FindStringSubmatch(caps[1][len(head[0]):]); n != nil {
		p.number = n[1]
	}
	return p, true
}

func commaSegments(s string) ([]string, bool) {
	var segs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			segs = append(segs, part)
		}
	}
	return segs, len(segs) >= 2
}

func extractCommaFallback(segs []string) (parsed, bool) {
	p := parsed{locality: segs[len(segs)-1]}
	joined := strings.Join(segs, ", ")
	if loc := reBareStreet.FindStringSubmatchIndex(joined); loc != nil {
		p.keyword = joined[loc[2]:loc[3]]
		p.name = joined[loc[4]:loc[5]]
		if n := reShortNumber.FindStringSubmatch(joined[loc[1]:]); n != nil {
			p.number = n[1]
		}
		if strings.EqualFold(strings.TrimSpace(p.locality), strings.TrimSpace(joined[loc[0]:loc[1]])) {
			p.locality = ""
		}
		return p, true
	}
	p.street = strings.Join(segs[:len(segs)-1], ", ")
	return p, true
}

// Clean removes the noise commonly found around portal addresses: the
// "Appartamento all'asta" title, the country, dash separators and doubled
// commas or spaces.
func Clean(raw string) string {
	s := reAuctionPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	s = reCountry.ReplaceAllString(s, "")
	s = reDashSep.ReplaceAllString(s, ", ")
	s = reDoubleComma.ReplaceAllString(s, ",")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(strings.TrimSpace(s), ",")
}

// Parse splits raw into street, house number and locality. When no strategy
// recognises the structure the raw string is returned as the street.
func Parse(raw string) entity.AddressParts {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.AddressParts{}
	}
	p, _, ok := utils.FirstOf(Clean(raw), strategies)
	if !ok {
		return entity.AddressParts{Street: &raw}
	}
	return finalize(p)
}

// ParseWith reports the name of the strategy that matched, "" for the raw
// fallback.
func ParseWith(raw string) (entity.AddressParts, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.AddressParts{}, ""
	}
	p, name, ok := utils.FirstOf(Clean(raw), strategies)
	if !ok {
		return entity.AddressParts{Street: &raw}, ""
	}
	return finalize(p), name
}

func finalize(p parsed) entity.AddressParts {
	var out entity.AddressParts

	number := strings.TrimSpace(p.number)
	if reFiveDigits.MatchString(number) {
		number = ""
	}

	street := strings.TrimSpace(p.street)
	if p.keyword != "" {
		street = capitalize(p.keyword) + " " + strings.Trim(strings.TrimSpace(p.name), " ,")
	}
	if street != "" && number != "" {
		street += " " + number
	}
	out.Street = utils.StrPtr(street)
	out.HouseNumber = utils.StrPtr(number)

	locality := reCountry.ReplaceAllString(p.locality, "")
	locality = reCAP.ReplaceAllString(locality, "")
	locality = reAfterComma.ReplaceAllString(locality, "")
	out.Locality = utils.StrPtr(strings.Trim(strings.TrimSpace(locality), " .-"))
	return out
}

func capitalize(kw string) string {
	kw = strings.ToLower(kw)
	if kw == "" {
		return kw
	}
	return strings.ToUpper(kw[:1]) + kw[1:]
}

// Format renders parts as "Via Roma, 12, Milano", skipping missing parts.
func Format(parts entity.AddressParts) *string {
	var out []string
	if parts.Street != nil {
		street := *parts.Street
		if parts.HouseNumber != nil {
			street = strings.TrimSpace(strings.TrimSuffix(street, " "+*parts.HouseNumber))
		}
		out = append(out, street)
	}
	if parts.HouseNumber != nil {
		out = append(out, *parts.HouseNumber)
	}
	if parts.Locality != nil {
		out = append(out, *parts.Locality)
	}
	if len(out) == 0 {
		return nil
	}
	s := strings.Join(out, ", ")
	return &s
}
