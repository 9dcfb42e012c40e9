package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/astadocs/internal/textnorm"
)

var (
	rePlainDecimal = regexp.MustCompile(`^-?\d+(?:\.\d{1,2})?$`)
	reShortDate    = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2})$`)
)

// synonyms maps keys models tend to invent onto the schema's names.
var synonyms = map[string]string{
	"deposito_cauzionale_percentuale": "cauzione_percentuale",
	"percentuale_cauzione":            "cauzione_percentuale",
	"cauzione":                        "deposito_cauzionale",
	"iban":                            "iban_beneficiario",
	"bic":                             "bic_cauzione",
	"beneficiario":                    "beneficiario_cauzione",
	"address":                         "indirizzo",
	"superficie":                      "superficie_mq",
	"piano":                           "piano_numero",
	"prezzo":                          "prezzo_offerto",
}

// NormalizeDraft coerces a decoded draft in place so that it fits s: known
// synonyms are renamed, unknown keys dropped, missing keys set to null,
// strings trimmed (blank becomes null), Italian money strings turned into
// numbers, integer strings into integers, and dates into yyyy-mm-dd. It
// returns a note per touched key.
func NormalizeDraft(s Schema, m map[string]any) []string {
	return normalizeObject(s.Properties(), m, "")
}

func normalizeObject(props map[string]any, m map[string]any, prefix string) []string {
	var notes []string
	for from, to := range synonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, declared := props[from]; declared {
			continue
		}
		if from == "cauzione" && isPercentString(v) {
			to = "cauzione_percentuale"
		}
		if _, declared := props[to]; !declared {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		notes = append(notes, prefix+from+"->"+to)
	}
	for k := range m {
		if _, ok := props[k]; !ok {
			delete(m, k)
			notes = append(notes, "drop:"+prefix+k)
		}
	}
	for k, def := range props {
		prop, _ := def.(map[string]any)
		v, ok := m[k]
		if !ok || v == nil {
			if primaryType(prop) == "object" {
				v = map[string]any{}
			} else {
				m[k] = nil
				continue
			}
		}
		coerced, changed := coerce(k, prop, v, prefix+k+".")
		m[k] = coerced
		if changed {
			notes = append(notes, "coerce:"+prefix+k)
		}
	}
	return notes
}

func coerce(key string, prop map[string]any, v any, prefix string) (any, bool) {
	switch primaryType(prop) {
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, true
		}
		inner, _ := prop["properties"].(map[string]any)
		return obj, len(normalizeObject(inner, obj, prefix)) > 0
	case "array":
		items, ok := v.([]any)
		if !ok {
			return nil, true
		}
		itemProp, _ := prop["items"].(map[string]any)
		inner, _ := itemProp["properties"].(map[string]any)
		out := make([]any, 0, len(items))
		changed := false
		for _, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				changed = true
				continue
			}
			if len(normalizeObject(inner, obj, prefix)) > 0 {
				changed = true
			}
			out = append(out, obj)
		}
		return out, changed
	case "number":
		return coerceNumber(v)
	case "integer":
		return coerceInteger(v)
	case "string":
		return coerceString(key, v)
	}
	return v, false
}

// asFloat reads the numeric kinds a draft map can hold. Decoded JSON only
// yields float64; maps built in code may carry ints or json.Number.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func isPercentString(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "%")
}

func coerceNumber(v any) (any, bool) {
	if f, ok := asFloat(v); ok {
		if _, native := v.(float64); !native {
			v = f
		}
	}
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return nil, true
		}
		r := textnorm.Round2(t)
		return r, r != t
	case string:
		s := strings.TrimSpace(t)
		if strings.Contains(s, "%") {
			return nil, true
		}
		if rePlainDecimal.MatchString(s) {
			if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
				return textnorm.Round2(f), true
			}
			return nil, true
		}
		if f := textnorm.Money(s); f != nil {
			return *f, true
		}
	}
	return nil, true
}

func coerceInteger(v any) (any, bool) {
	if f, ok := asFloat(v); ok {
		if _, native := v.(float64); !native {
			v = f
		}
	}
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return t, false
		}
		return float64(int64(t)), true
	case string:
		if n := textnorm.Int(t); n != nil {
			return float64(*n), true
		}
	}
	return nil, true
}

func coerceString(key string, v any) (any, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64, int, int64, json.Number:
		f, _ := asFloat(t)
		s = strconv.FormatFloat(f, 'f', -1, 64)
	case bool:
		if t {
			s = "SI"
		} else {
			s = "NO"
		}
	default:
		return nil, true
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil, true
	}
	switch {
	case isDateKey(key):
		if d := draftDate(s); d != nil {
			return *d, *d != v
		}
		return nil, true
	case isClockKey(key):
		if c := textnorm.FindClock(s); c != nil {
			return *c, *c != v
		}
		return nil, true
	}
	return s, s != v
}

func isDateKey(key string) bool {
	return strings.HasPrefix(key, "data_") || strings.HasSuffix(key, "_data") || key == "aggiornato_il"
}

func isClockKey(key string) bool {
	return strings.HasPrefix(key, "ora_") || strings.HasSuffix(key, "_ora")
}

// draftDate accepts everything textnorm.Date does plus two-digit years,
// which are read as 20yy.
func draftDate(s string) *string {
	if m := reShortDate.FindStringSubmatch(s); m != nil {
		return textnorm.Date(fmt.Sprintf("%s/%s/20%s", m[1], m[2], m[3]))
	}
	return textnorm.Date(s)
}

func primaryType(prop map[string]any) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []string:
		for _, s := range t {
			if s != "null" {
				return s
			}
		}
	case []any:
		for _, s := range t {
			if str, ok := s.(string); ok && str != "null" {
				return str
			}
		}
	}
	return ""
}

// NormalizeAndSanitizeJSON decodes raw (salvaging an embedded object when
// needed), applies NormalizeDraft and re-encodes it.
func NormalizeAndSanitizeJSON(s Schema, raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	obj, ok := SalvageObject(raw)
	if !ok {
		return nil, nil, fmt.Errorf("sanitize: no json object in %d bytes", len(raw))
	}
	var m map[string]any
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	notes := NormalizeDraft(s, m)
	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(notes) > 0 {
		logger.Debug("draft.sanitize.applied", "schema", s.Name, "notes", notes)
	}
	return out, notes, nil
}

// SalvageObject returns raw when it is a JSON object, else the outermost
// {...} substring when that decodes. Model answers wrapped in prose or code
// fences are recovered this way.
func SalvageObject(raw []byte) ([]byte, bool) {
	trimmed := []byte(strings.TrimSpace(string(raw)))
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return trimmed, true
	}
	start := strings.IndexByte(string(trimmed), '{')
	end := strings.LastIndexByte(string(trimmed), '}')
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := trimmed[start : end+1]
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}
