// Package cadastral reads land-registry identifiers (foglio, particella,
// subalterno, categoria, sezione) out of proposal text.
package cadastral

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/astadocs/internal/entity"
)

// DefaultWindow is how far after a label its value may appear.
const DefaultWindow = 80

type field int

const (
	fieldSection field = iota
	fieldSheet
	fieldParcel
	fieldMappale
	fieldSubunit
	fieldCategory
)

var (
	reLabel = regexp.MustCompile(`(?i)(foglio|fg|particella|part|mappale|subalterno|sub|sezione|sez|categoria|cat)\.?`)

	reNumberValue   = regexp.MustCompile(`\b(\d[0-9A-Za-z/]*)`)
	reCategoryValue = regexp.MustCompile(`(?i)\b([A-F]\s?/\s?\d{1,2}|[A-F]\d{1,2})\b`)
	reSectionValue  = regexp.MustCompile(`(?i)^[\s:.]*(?:urbana\s+)?([A-Z0-9]{1,3})\b`)
	reAllDigits     = regexp.MustCompile(`^\d+$`)
)

var labelFields = map[string]field{
	"foglio":     fieldSheet,
	"fg":         fieldSheet,
	"particella": fieldParcel,
	"part":       fieldParcel,
	"mappale":    fieldMappale,
	"subalterno": fieldSubunit,
	"sub":        fieldSubunit,
	"sezione":    fieldSection,
	"sez":        fieldSection,
	"categoria":  fieldCategory,
	"cat":        fieldCategory,
}

// Result holds every unit found, in document order, and the primary one.
type Result struct {
	Units   []entity.CadastralUnit
	Primary *entity.CadastralUnit
}

// Parser extracts cadastral units. The zero value uses DefaultWindow.
type Parser struct {
	Window int
}

type label struct {
	field      field
	start, end int
}

// Parse scans text for cadastral labels. A "Foglio" label after one has
// already been seen starts a new unit, as does a repeated field; in the
// latter case the new unit inherits the fields ranked above the repeated
// one (a second "Sub" keeps foglio and particella).
func (p Parser) Parse(text string) Result {
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}

	labels := findLabels(text)
	var (
		units []entity.CadastralUnit
		cur   entity.CadastralUnit
	)
	for i, l := range labels {
		limit := len(text)
		if i+1 < len(labels) {
			limit = labels[i+1].start
		}
		val := readValue(l.field, text[l.end:limit], window)
		if val == nil {
			continue
		}
		if get(&cur, l.field) != nil {
			units = append(units, cur)
			cur = inherit(cur, l.field)
		}
		set(&cur, l.field, val)
	}
	units = append(units, cur)

	out := Result{}
	for _, u := range units {
		if !u.Present() {
			continue
		}
		if u.Parcel == nil && u.Mappale != nil {
			m := *u.Mappale
			u.Parcel = &m
		}
		out.Units = append(out.Units, u.WithMappaleDefault())
	}
	out.Primary = primary(out.Units)
	return out
}

// Parse runs a Parser with the default window.
func Parse(text string) Result {
	return Parser{}.Parse(text)
}

func findLabels(text string) []label {
	var out []label
	for _, m := range reLabel.FindAllStringSubmatchIndex(text, -1) {
		if !boundary(text, m[0], m[1]) {
			continue
		}
		name := strings.ToLower(text[m[2]:m[3]])
		out = append(out, label{field: labelFields[name], start: m[0], end: m[1]})
	}
	return out
}

// boundary rejects labels embedded in longer words ("catasto", "parte").
func boundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func readValue(f field, after string, window int) *string {
	if r := []rune(after); len(r) > window {
		after = string(r[:window])
	}
	var v string
	switch f {
	case fieldCategory:
		m := reCategoryValue.FindStringSubmatch(after)
		if m == nil {
			return nil
		}
		v = strings.ToUpper(strings.Join(strings.Fields(m[1]), ""))
	case fieldSection:
		m := reSectionValue.FindStringSubmatch(after)
		if m == nil || reAllDigits.MatchString(m[1]) {
			return nil
		}
		v = strings.ToUpper(m[1])
	default:
		m := reNumberValue.FindStringSubmatch(after)
		if m == nil {
			return nil
		}
		v = strings.TrimRight(m[1], "/")
	}
	return &v
}

func get(u *entity.CadastralUnit, f field) *string {
	switch f {
	case fieldSection:
		return u.Section
	case fieldSheet:
		return u.Sheet
	case fieldParcel:
		return u.Parcel
	case fieldMappale:
		return u.Mappale
	case fieldSubunit:
		return u.Subunit
	default:
		return u.Category
	}
}

func set(u *entity.CadastralUnit, f field, v *string) {
	switch f {
	case fieldSection:
		u.Section = v
	case fieldSheet:
		u.Sheet = v
	case fieldParcel:
		u.Parcel = v
	case fieldMappale:
		u.Mappale = v
	case fieldSubunit:
		u.Subunit = v
	default:
		u.Category = v
	}
}

func inherit(prev entity.CadastralUnit, repeated field) entity.CadastralUnit {
	var next entity.CadastralUnit
	if repeated == fieldSheet {
		return next
	}
	for f := fieldSection; f < repeated; f++ {
		set(&next, f, get(&prev, f))
	}
	if repeated == fieldMappale {
		next.Parcel = nil
	}
	return next
}

func primary(units []entity.CadastralUnit) *entity.CadastralUnit {
	for i := range units {
		if units[i].Complete() {
			u := units[i]
			return &u
		}
	}
	if len(units) > 0 {
		u := units[0]
		return &u
	}
	return nil
}
