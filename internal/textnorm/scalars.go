package textnorm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reMoneyJunk   = regexp.MustCompile(`[^\d.\-]`)
	reMoneyNumber = regexp.MustCompile(`^-?(?:\d+(?:\.\d*)?|\.\d+)`)

	reNumericDate = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})`)
	reNamedDate   = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)
	reISODate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	reClock = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\b`)

	reYes = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:s[iì]|yes)(?:$|[^\p{L}])`)
	reNo  = regexp.MustCompile(`(?i)(?:^|[^\p{L}])no(?:$|[^\p{L}])`)
)

// monthPrefixes maps the diacritic-folded first three letters of an Italian
// month name to its number.
var monthPrefixes = map[string]int{
	"gen": 1, "feb": 2, "mar": 3, "apr": 4, "mag": 5, "giu": 6,
	"lug": 7, "ago": 8, "set": 9, "ott": 10, "nov": 11, "dic": 12,
}

// Money parses an Italian-formatted amount ("€ 125.000,00"): '.' is the
// thousands separator, ',' the decimal separator. The result is rounded to
// two decimals; nil when no digits remain or the value is negative.
func Money(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	s = reMoneyJunk.ReplaceAllString(s, "")
	num := reMoneyNumber.FindString(s)
	if num == "" || num == "-" {
		return nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n < 0 || math.IsInf(n, 0) {
		return nil
	}
	n = Round2(n)
	return &n
}

// Round2 rounds to two decimal places.
func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}

// Date converts dd/mm/yyyy, dd.mm.yyyy, dd-mm-yyyy or "dd <mese> yyyy" to
// yyyy-mm-dd. Month names match on their first three letters without
// diacritics. Already canonical input is returned as-is. No calendar check
// is made: "31/04/2024" yields "2024-04-31".
func Date(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if reISODate.MatchString(s) {
		return &s
	}
	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		out := fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
		return &out
	}
	if m := reNamedDate.FindStringSubmatch(strings.ToLower(s)); m != nil {
		name := []rune(Fold(m[2]))
		if len(name) < 3 {
			return nil
		}
		if month, ok := monthPrefixes[string(name[:3])]; ok {
			out := fmt.Sprintf("%s-%02d-%s", m[3], month, pad2(m[1]))
			return &out
		}
	}
	return nil
}

// Clock formats hour and minute captures as HH:MM.
func Clock(h, m string) string {
	return pad2(h) + ":" + pad2(m)
}

// FindClock returns the first HH:MM (or HH.MM) time in s.
func FindClock(s string) *string {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	out := Clock(m[1], m[2])
	return &out
}

// YesNo maps affirmative forms (sì, si, yes) to "SI" and "no" to "NO".
// Anything else is nil, never a negative answer.
func YesNo(s string) *string {
	if s == "" {
		return nil
	}
	var out string
	switch {
	case reYes.MatchString(s):
		out = "SI"
	case reNo.MatchString(s):
		out = "NO"
	default:
		return nil
	}
	return &out
}

// Percent returns the first integer 0-99 followed by '%' within window
// characters after any of the labels, tried in order.
func Percent(text string, labels []string, window int) *int {
	for _, label := range labels {
		if v := PickNear(text, label, `\b\d{1,2}\s*%`, window); v != nil {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(*v), "%")))
			if err == nil {
				return &n
			}
		}
	}
	return nil
}

// Int parses the first run of digits in s.
func Int(s string) *int {
	digits := reDigits.FindString(s)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

var reDigits = regexp.MustCompile(`\d+`)

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
