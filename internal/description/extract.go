// Package description isolates the free-text "Descrizione" block of a
// listing page.
package description

import (
	"regexp"
	"strings"
)

// DefaultMaxChars caps the extracted block.
const DefaultMaxChars = 4000

// DefaultStopPhrases are the portal call-to-action and procedural lines that
// end a description. Entries are case-insensitive regex fragments matched at
// the start of a line.
var DefaultStopPhrases = []string{
	`se vuoi saperne`,
	`invia messaggio`,
	`il nostro servizio`,
	`possibilit[aà]'? di mutuo`,
	`per la partecipazione`,
	`risparmia acquistando`,
	`compera all'?asta`,
}

var (
	reStart     = regexp.MustCompile(`(?i)(?:^|\n)[ \t]*Descrizione[ \t]*:?[ \t]*(?:\n+| )`)
	reURLLine   = regexp.MustCompile(`(?i)^(?:www\.|https?://)`)
	reTrailing  = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
	reSplitCent = regexp.MustCompile(`,\s+00\b`)
)

// Options tunes the extractor.
type Options struct {
	MaxChars    int
	StopPhrases []string
}

// Extractor holds the compiled stop-marker expression for a set of Options.
// It is immutable and safe for concurrent use.
type Extractor struct {
	maxChars int
	stop     *regexp.Regexp
}

// New compiles an Extractor. Zero options fall back to the defaults.
func New(opts Options) (*Extractor, error) {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if len(opts.StopPhrases) == 0 {
		opts.StopPhrases = DefaultStopPhrases
	}
	stop, err := regexp.Compile(stopPattern(opts.StopPhrases))
	if err != nil {
		return nil, err
	}
	return &Extractor{maxChars: opts.MaxChars, stop: stop}, nil
}

// stopPattern joins the stop markers in their evaluation order: bare URL,
// call-to-action phrases, a repeated heading, a date-stamped portal line and
// a page fraction ("2/8").
func stopPattern(phrases []string) string {
	markers := []string{`https?://\S+`}
	markers = append(markers, phrases...)
	markers = append(markers,
		`descrizione\b`,
		`\d{1,2}/\d{1,2}/\d{2,4}[^\n]*`,
		`\d+/\d+[ \t]*$`,
	)
	for i, m := range markers {
		markers[i] = `(?:^|\n)\s*(?:` + m + `)`
	}
	return `(?im)` + strings.Join(markers, "|")
}

var defaultExtractor, _ = New(Options{})

// Extract runs the default extractor.
func Extract(text string) *string {
	return defaultExtractor.Extract(text)
}

// Extract returns the block after the first "Descrizione" heading up to the
// first stop marker, or nil when there is no heading or nothing remains.
func (e *Extractor) Extract(text string) *string {
	if text == "" {
		return nil
	}
	t := strings.ReplaceAll(text, "\r", "")
	loc := reStart.FindStringIndex(t)
	if loc == nil {
		return nil
	}
	after := t[loc[1]:]
	if stop := e.stop.FindStringIndex(after); stop != nil {
		after = after[:stop[0]]
	}

	kept := make([]string, 0, 16)
	for _, line := range strings.Split(after, "\n") {
		if reURLLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	block := strings.Join(kept, "\n")
	if r := []rune(block); len(r) > e.maxChars {
		block = string(r[:e.maxChars])
	}
	return cleanBlock(block)
}

func cleanBlock(s string) *string {
	s = reTrailing.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	s = reSplitCent.ReplaceAllString(s, ",00")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
