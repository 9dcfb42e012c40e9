package utils

import "strings"

// Lookup walks a dotted path through nested map[string]any values and returns
// the leaf, or def when any segment is missing or nil. A missing intermediate
// object is treated the same as a missing leaf.
func Lookup(m map[string]any, path string, def any) any {
	var cur any = m
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		next, ok := obj[key]
		if !ok || next == nil {
			return def
		}
		cur = next
	}
	return cur
}

// LookupString is Lookup for string leaves; non-string leaves yield def.
func LookupString(m map[string]any, path string, def string) string {
	if s, ok := Lookup(m, path, nil).(string); ok {
		return s
	}
	return def
}

// LookupFloat is Lookup for numeric leaves decoded from JSON.
func LookupFloat(m map[string]any, path string, def float64) float64 {
	switch v := Lookup(m, path, nil).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}
