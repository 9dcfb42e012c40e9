package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/astadocs/internal/textnorm"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

const (
	datePattern    = `[0-3]?\d[/.\-][0-1]?\d[/.\-]\d{4}`
	anyDatePattern = datePattern + `|\d{1,2}\s+\p{L}+\s+\d{4}`
	hourPattern    = `([01]?\d|2[0-3])[:.]([0-5]\d)`
)

var reDateToken = regexp.MustCompile(datePattern)

// firstLabel tries each label in order with the pattern built for it and
// returns the first value build accepts.
func firstLabel[T any](text string, labels []string, pattern func(label string) string, build func(caps []string) (T, bool)) (T, bool) {
	strategies := make([]utils.Strategy[T], 0, len(labels))
	for _, label := range labels {
		re := textnorm.Compile(pattern(label))
		strategies = append(strategies, utils.Strategy[T]{
			Name: label,
			Match: func(s string) ([]string, bool) {
				m := re.FindStringSubmatch(s)
				return m, m != nil
			},
			Extract: build,
		})
	}
	v, _, ok := utils.FirstOf(text, strategies)
	return v, ok
}

// labelValue returns the text following label on its own line, or the next
// line when the label line carries nothing else.
func labelValue(lines []string, label string) *string {
	re := textnorm.Compile(`(?i)` + label)
	for i, l := range lines {
		loc := re.FindStringIndex(l)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(strings.TrimLeft(l[loc[1]:], " :-–"))
		if rest != "" {
			return &rest
		}
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			return &next
		}
		return nil
	}
	return nil
}

// amountStrict reads a money value only when introduced by "€" or "euro"
// within window characters after one of the labels.
func amountStrict(text string, labels []string, window int) *float64 {
	v, ok := firstLabel(text, labels,
		func(label string) string {
			return fmt.Sprintf(`(?i)(?:%s)[\s\S]{0,%d}?(?:€\s*|euro\s*)([\d.,]{1,15})`, label, window)
		},
		func(caps []string) (*float64, bool) {
			n := textnorm.Money(caps[1])
			return n, n != nil
		})
	if !ok {
		return nil
	}
	return v
}

// days reads a 1-3 digit count within window characters after a label.
func days(text string, labels []string, window int) *int {
	v, ok := firstLabel(text, labels,
		func(label string) string {
			return fmt.Sprintf(`(?i)(?:%s)[\s\S]{0,%d}?\b(\d{1,3})\b`, label, window)
		},
		func(caps []string) (*int, bool) {
			n, err := strconv.Atoi(caps[1])
			return &n, err == nil
		})
	if !ok {
		return nil
	}
	return v
}

// afterLabel captures the text after a label up to a strong separator: end
// of line, comma, semicolon or the start of a birth clause ("nato", "il").
func afterLabel(text string, labels []string, window int) *string {
	v, ok := firstLabel(text, labels,
		func(label string) string {
			return fmt.Sprintf(`(?i)(?:%s)[\s:]*([\s\S]{1,%d}?)(?:$|[,;\n]|\bnat[oa]\b|\bn\.?\s*a\b|\bil\b)`, label, window)
		},
		func(caps []string) (*string, bool) {
			s := utils.StrPtr(caps[1])
			return s, s != nil
		})
	if !ok {
		return nil
	}
	return v
}

// clockOutsideDates finds an HH:MM time in s ignoring digits that belong to
// a dd.mm.yyyy date.
func clockOutsideDates(s string) *string {
	return textnorm.FindClock(reDateToken.ReplaceAllString(s, " "))
}

var (
	reDeadline      = regexp.MustCompile(`(?i)entro\s+(?:e\s+non\s+oltre\s+)?(?:il\s+)?(?:giorno\s+)?(` + datePattern + `)(?:[\s,]*(?:alle\s+ore|ore|h\.?)\s*` + hourPattern + `)?`)
	reDeadlineLabel = regexp.MustCompile(`(?i)offert[ae]|propost[ae]|deposito|cauzione`)
)

// depositDeadline finds "entro il dd/mm/yyyy [ore HH:MM]" within window
// characters after a mention of the offer, proposal or deposit.
func depositDeadline(text string, window int) (date, clock *string) {
	for _, loc := range reDeadlineLabel.FindAllStringIndex(text, -1) {
		m := reDeadline.FindStringSubmatch(headRunes(text[loc[0]:], window+loc[1]-loc[0]))
		if m == nil {
			continue
		}
		date = textnorm.Date(m[1])
		if m[2] != "" {
			c := textnorm.Clock(m[2], m[3])
			clock = &c
		}
		return date, clock
	}
	return nil, nil
}

// headRunes returns at most n leading runes of s.
func headRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
