package vecstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
)

func TestRank(t *testing.T) {
	candidates := []*model.Embedding{
		{ID: "a", Vector: []float32{1, 0}, Metadata: metadata.Metadata{"doc": "X"}},
		{ID: "b", Vector: []float32{0, 1}, Metadata: metadata.Metadata{"doc": "X"}},
		{ID: "c", Vector: []float32{0.9, 0.1}, Metadata: metadata.Metadata{"doc": "Y"}},
	}
	query := []float32{1, 0}

	t.Run("OrderingAndLimit", func(t *testing.T) {
		results := Rank(query, candidates, nil, SearchOptions{Limit: 2})
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Embedding.ID)
		assert.Equal(t, "c", results[1].Embedding.ID)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	})

	t.Run("FilterBeforeScoring", func(t *testing.T) {
		results := Rank(query, candidates, nil, SearchOptions{
			Limit:  10,
			Filter: metadata.Filter{"doc": "Y"},
		})
		require.Len(t, results, 1)
		assert.Equal(t, "c", results[0].Embedding.ID)
	})

	t.Run("StrictThreshold", func(t *testing.T) {
		// "a" scores exactly 1.0 and must survive a threshold of 1.0;
		// everything scoring below is excluded.
		results := Rank(query, candidates, nil, SearchOptions{Limit: 10, MinScore: 1.0})
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Embedding.ID)
	})

	t.Run("StableTies", func(t *testing.T) {
		same := []*model.Embedding{
			{ID: "one", Vector: []float32{1, 0}},
			{ID: "two", Vector: []float32{3, 0}},
			{ID: "three", Vector: []float32{0.5, 0}},
		}
		results := Rank(query, same, nil, SearchOptions{Limit: 10})
		require.Len(t, results, 3)
		assert.Equal(t, "one", results[0].Embedding.ID)
		assert.Equal(t, "two", results[1].Embedding.ID)
		assert.Equal(t, "three", results[2].Embedding.ID)
	})

	t.Run("NoLimitTruncationBeforeSort", func(t *testing.T) {
		// The best candidate is last by insertion; a limit of 1 must still
		// return it, proving the limit applies after sorting.
		reversed := []*model.Embedding{
			{ID: "far", Vector: []float32{0, 1}},
			{ID: "near", Vector: []float32{1, 0}},
		}
		results := Rank(query, reversed, nil, SearchOptions{Limit: 1})
		require.Len(t, results, 1)
		assert.Equal(t, "near", results[0].Embedding.ID)
	})
}
