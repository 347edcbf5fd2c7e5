package metadata

// Filter is an exact-match, AND-combined predicate over metadata keys.
//
// An embedding matches only if every key in the filter exists in its metadata
// with an equal value. A missing key excludes the candidate.
type Filter map[string]any

// Matches reports whether doc satisfies every key/value pair in the filter.
// A nil or empty filter matches everything.
func (f Filter) Matches(doc Metadata) bool {
	for k, want := range f {
		got, exists := doc[k]
		if !exists {
			return false
		}
		if !equalValue(got, want) {
			return false
		}
	}
	return true
}
