package textnorm

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// compiled memoizes label/value/window regexes; patterns are fixed per call
// site so the set stays small.
var compiled sync.Map

func mustCompile(pattern string) *regexp.Regexp {
	if re, ok := compiled.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(pattern)
	compiled.Store(pattern, re)
	return re
}

// NearPattern builds the case-insensitive pattern "label, then up to window
// characters (lazily), then the captured value".
func NearPattern(label, value string, window int) string {
	return fmt.Sprintf(`(?i)(?:%s)[\s\S]{0,%d}?(%s)`, label, window, value)
}

// PickNear finds label, then returns the first value match starting within
// window characters after it. Labels and values are regex fragments.
func PickNear(text, label, value string, window int) *string {
	m := mustCompile(NearPattern(label, value, window)).FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil
	}
	return &m[1]
}

// WindowAfter returns the label match plus up to window following
// characters, or "" when the label is absent. Used to confine searches to
// the context of a governing label.
func WindowAfter(text, label string, window int) string {
	re := mustCompile(fmt.Sprintf(`(?i)(?:%s)[\s\S]{0,%d}`, label, window))
	return re.FindString(text)
}

// PickLabelLine returns the line following the first line matching label.
func PickLabelLine(lines []string, label string) *string {
	re := mustCompile(`(?i)` + label)
	for i, l := range lines {
		if re.MatchString(l) {
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				return &next
			}
			return nil
		}
	}
	return nil
}

// Compile exposes the memoized compiler for callers composing their own
// label-anchored patterns.
func Compile(pattern string) *regexp.Regexp {
	return mustCompile(pattern)
}
