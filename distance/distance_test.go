package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-6)
		assert.InDelta(t, 1.0, Cosine([]float32{3, 4}, []float32{6, 8}), 1e-6)
	})

	t.Run("Orthogonal", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("Opposite", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	})

	t.Run("KnownValue", func(t *testing.T) {
		// cos([1,0], [0.9,0.1]) = 0.9/sqrt(0.82)
		got := Cosine([]float32{1, 0}, []float32{0.9, 0.1})
		assert.InDelta(t, 0.99388, got, 1e-4)
	})

	t.Run("ZeroVectorSafety", func(t *testing.T) {
		cases := [][2][]float32{
			{{0, 0}, {1, 1}},
			{{1, 1}, {0, 0}},
			{{0, 0}, {0, 0}},
			{nil, nil},
		}
		for _, c := range cases {
			got := Cosine(c[0], c[1])
			assert.Equal(t, float32(0), got)
			assert.False(t, math.IsNaN(float64(got)))
		}
	})
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-6)
	assert.Equal(t, float32(0), Dot(nil, nil))
}

func TestNormalize(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		require.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		require.False(t, NormalizeL2InPlace([]float32{0, 0}))
		_, ok := NormalizeL2Copy([]float32{0, 0, 0})
		require.False(t, ok)
	})

	t.Run("Copy", func(t *testing.T) {
		src := []float32{0, 5}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.Equal(t, []float32{0, 5}, src)
		assert.InDelta(t, 1.0, dst[1], 1e-6)
	})
}
