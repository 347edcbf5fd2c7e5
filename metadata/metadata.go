// Package metadata provides the free-form metadata model and the exact-match
// filtering used by similarity search.
package metadata

import (
	"fmt"
	"reflect"

	gojson "github.com/goccy/go-json"
)

// Metadata maps string keys to JSON-primitive-or-nested values.
type Metadata map[string]any

// Clone returns a shallow copy of the top-level map. Nested values are
// shared; callers that mutate nested values own the consequences.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Primitives returns a copy of m restricted to JSON-primitive values.
// Complex values (arrays, nested maps) are stringified as JSON, for remote
// stores that only accept primitive metadata.
func (m Metadata) Primitives() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		switch v.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		default:
			if b, err := gojson.Marshal(v); err == nil {
				out[k] = string(b)
			} else {
				out[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	return out
}

// equalValue compares two metadata values for exact-match filtering.
//
// Numbers compare by value regardless of Go type, since JSON decoding turns
// every number into float64 while in-process metadata may hold ints.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := asFloat64(a); ok {
		nb, ok := asFloat64(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, exists := bv[k]
			if !exists || !equalValue(v, ov) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
