package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
)

func seedScenario(t *testing.T, ctx context.Context, store VectorStore) []string {
	t.Helper()
	ids, err := store.AddEmbeddings(ctx, []*model.Embedding{
		{ID: "e1", DocumentID: "X", Vector: []float32{1, 0}, Metadata: metadata.Metadata{"doc": "X"}},
		{ID: "e2", DocumentID: "X", Vector: []float32{0, 1}, Metadata: metadata.Metadata{"doc": "X"}},
		{ID: "e3", DocumentID: "Y", Vector: []float32{0.9, 0.1}, Metadata: metadata.Metadata{"doc": "Y"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"e1", "e2", "e3"}, ids)
	return ids
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndGet", func(t *testing.T) {
		store := NewMemoryStore()

		id, err := store.AddEmbedding(ctx, &model.Embedding{
			DocumentID: "doc-1",
			Content:    "hello",
			Vector:     []float32{0.1, 0.2},
			Metadata:   metadata.Metadata{"lang": "en"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := store.GetEmbedding(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "doc-1", got.DocumentID)
		assert.Equal(t, "hello", got.Content)
		assert.Equal(t, []float32{0.1, 0.2}, got.Vector)
		assert.Equal(t, metadata.Metadata{"lang": "en"}, got.Metadata)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.GetEmbedding(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ResultsAreCopies", func(t *testing.T) {
		store := NewMemoryStore()
		id, err := store.AddEmbedding(ctx, &model.Embedding{Vector: []float32{1, 0}})
		require.NoError(t, err)

		got, err := store.GetEmbedding(ctx, id)
		require.NoError(t, err)
		got.Vector[0] = 99

		again, err := store.GetEmbedding(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, float32(1), again.Vector[0])
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.AddEmbedding(ctx, &model.Embedding{Vector: []float32{1, 0}})
		require.NoError(t, err)

		_, err = store.AddEmbedding(ctx, &model.Embedding{Vector: []float32{1, 0, 0}})
		var dme *DimensionMismatchError
		require.ErrorAs(t, err, &dme)
		assert.Equal(t, 2, dme.Expected)
		assert.Equal(t, 3, dme.Actual)

		_, err = store.Search(ctx, []float32{1})
		require.ErrorAs(t, err, &dme)
	})

	t.Run("IdempotentDelete", func(t *testing.T) {
		store := NewMemoryStore()
		id, err := store.AddEmbedding(ctx, &model.Embedding{Vector: []float32{1, 0}})
		require.NoError(t, err)

		require.NoError(t, store.DeleteEmbedding(ctx, id))
		require.NoError(t, store.DeleteEmbedding(ctx, id))

		_, err = store.GetEmbedding(ctx, id)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteByDocument", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		require.NoError(t, store.DeleteEmbeddings(ctx, "X"))
		require.NoError(t, store.DeleteEmbeddings(ctx, "X")) // idempotent

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = store.GetEmbedding(ctx, "e1")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetEmbedding(ctx, "e3")
		require.NoError(t, err)
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		require.NoError(t, store.Clear(ctx))
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		// A cleared store accepts a new dimensionality.
		_, err = store.AddEmbedding(ctx, &model.Embedding{Vector: []float32{1, 2, 3}})
		require.NoError(t, err)
	})

	t.Run("BatchPartialCommit", func(t *testing.T) {
		store := NewMemoryStore(WithBatchSize(2))

		embs := []*model.Embedding{
			{ID: "a", Vector: []float32{1, 0}},
			{ID: "b", Vector: []float32{0, 1}},
			{ID: "bad", Vector: []float32{1, 2, 3}}, // wrong dimension
			{ID: "c", Vector: []float32{1, 1}},
		}
		ids, err := store.AddEmbeddings(ctx, embs)
		require.Error(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)

		// Committed batches stay committed, nothing after the failure lands.
		_, err = store.GetEmbedding(ctx, "a")
		require.NoError(t, err)
		_, err = store.GetEmbedding(ctx, "c")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ScenarioA", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0}, WithLimit(2))
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "e1", results[0].Embedding.ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, "e3", results[1].Embedding.ID)
		assert.InDelta(t, 0.994, results[1].Score, 1e-3)
	})

	t.Run("ScenarioAFiltered", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0},
			WithLimit(10),
			WithFilter(metadata.Filter{"doc": "X"}),
		)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "e1", results[0].Embedding.ID)
		assert.Equal(t, "e2", results[1].Embedding.ID)
		for _, r := range results {
			assert.Equal(t, "X", r.Embedding.Metadata["doc"])
		}
	})

	t.Run("MinScoreStrict", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0}, WithMinScore(0.99), WithLimit(10))
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, float32(0.99))
		}
	})

	t.Run("DeterministicTieBreak", func(t *testing.T) {
		store := NewMemoryStore()
		// Same direction, same score: insertion order must win.
		for _, id := range []string{"first", "second", "third"} {
			_, err := store.AddEmbedding(ctx, &model.Embedding{ID: id, Vector: []float32{2, 0}})
			require.NoError(t, err)
		}

		results, err := store.Search(ctx, []float32{1, 0}, WithLimit(3))
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "first", results[0].Embedding.ID)
		assert.Equal(t, "second", results[1].Embedding.ID)
		assert.Equal(t, "third", results[2].Embedding.ID)
	})

	t.Run("ZeroQuerySafety", func(t *testing.T) {
		store := NewMemoryStore()
		seedScenario(t, ctx, store)

		results, err := store.Search(ctx, []float32{0, 0}, WithLimit(10))
		require.NoError(t, err)
		require.Len(t, results, 3)
		for _, r := range results {
			assert.Equal(t, float32(0), r.Score)
		}
	})

	t.Run("PreNormalizedDot", func(t *testing.T) {
		store := NewMemoryStore(WithPreNormalized(true))
		_, err := store.AddEmbedding(ctx, &model.Embedding{ID: "n1", Vector: []float32{0.6, 0.8}})
		require.NoError(t, err)

		results, err := store.Search(ctx, []float32{0.6, 0.8}, WithLimit(1))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})
}
