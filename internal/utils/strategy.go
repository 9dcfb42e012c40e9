package utils

// Strategy is one named (matcher, extractor) pair in an ordered fallback chain.
// Match reports whether the strategy applies and returns its captures;
// Extract turns the captures into a value and may still decline with ok=false.
type Strategy[T any] struct {
	Name    string
	Match   func(s string) ([]string, bool)
	Extract func(captures []string) (T, bool)
}

// FirstOf evaluates strategies in order and returns the first successful
// value along with the name of the strategy that produced it.
func FirstOf[T any](s string, strategies []Strategy[T]) (T, string, bool) {
	var zero T
	for _, st := range strategies {
		caps, ok := st.Match(s)
		if !ok {
			continue
		}
		if st.Extract == nil {
			continue
		}
		if v, ok := st.Extract(caps); ok {
			return v, st.Name, true
		}
	}
	return zero, "", false
}
