package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives(t *testing.T) {
	t.Run("PrimitivesPassThrough", func(t *testing.T) {
		m := Metadata{"s": "x", "i": 7, "f": 1.5, "b": true, "n": nil}
		assert.Equal(t, m, m.Primitives())
	})

	t.Run("ComplexValuesStringified", func(t *testing.T) {
		m := Metadata{
			"tags":   []any{"a", "b"},
			"nested": map[string]any{"k": float64(1)},
		}
		got := m.Primitives()
		assert.Equal(t, `["a","b"]`, got["tags"])
		assert.Equal(t, `{"k":1}`, got["nested"])
	})

	t.Run("Nil", func(t *testing.T) {
		var m Metadata
		assert.Nil(t, m.Primitives())
	})
}

func TestClone(t *testing.T) {
	m := Metadata{"a": 1}
	c := m.Clone()
	c["a"] = 2
	assert.Equal(t, 1, m["a"])
}

func TestEqualValue(t *testing.T) {
	t.Run("NumericCrossType", func(t *testing.T) {
		// JSON decoding yields float64 where in-process metadata holds int.
		assert.True(t, equalValue(2024, float64(2024)))
		assert.True(t, equalValue(float64(2024), 2024))
		assert.True(t, equalValue(int64(5), float32(5)))
		assert.False(t, equalValue(2024, float64(2025)))
	})

	t.Run("Strings", func(t *testing.T) {
		assert.True(t, equalValue("x", "x"))
		assert.False(t, equalValue("x", "y"))
		assert.False(t, equalValue("1", 1))
	})

	t.Run("Bools", func(t *testing.T) {
		assert.True(t, equalValue(true, true))
		assert.False(t, equalValue(true, false))
	})

	t.Run("Nils", func(t *testing.T) {
		assert.True(t, equalValue(nil, nil))
		assert.False(t, equalValue(nil, "x"))
	})

	t.Run("Arrays", func(t *testing.T) {
		assert.True(t, equalValue([]any{"a", float64(1)}, []any{"a", 1}))
		assert.False(t, equalValue([]any{"a"}, []any{"a", "b"}))
	})

	t.Run("Maps", func(t *testing.T) {
		assert.True(t, equalValue(map[string]any{"k": 1}, map[string]any{"k": float64(1)}))
		assert.False(t, equalValue(map[string]any{"k": 1}, map[string]any{"j": 1}))
	})
}

func TestFilter(t *testing.T) {
	doc := Metadata{"doc": "X", "year": float64(2024), "lang": "en"}

	t.Run("NilMatchesAll", func(t *testing.T) {
		var f Filter
		require.True(t, f.Matches(doc))
		require.True(t, Filter{}.Matches(nil))
	})

	t.Run("ExactMatch", func(t *testing.T) {
		assert.True(t, Filter{"doc": "X"}.Matches(doc))
		assert.False(t, Filter{"doc": "Y"}.Matches(doc))
	})

	t.Run("AndSemantics", func(t *testing.T) {
		assert.True(t, Filter{"doc": "X", "lang": "en"}.Matches(doc))
		assert.False(t, Filter{"doc": "X", "lang": "de"}.Matches(doc))
	})

	t.Run("MissingKeyExcludes", func(t *testing.T) {
		assert.False(t, Filter{"missing": "x"}.Matches(doc))
		assert.False(t, Filter{"doc": "X"}.Matches(nil))
	})

	t.Run("NumericTolerance", func(t *testing.T) {
		assert.True(t, Filter{"year": 2024}.Matches(doc))
	})
}
