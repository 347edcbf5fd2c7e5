package vecstore

import (
	"context"

	"github.com/hupe1980/vecstore/model"
)

// VectorStore is the storage contract shared by every backend.
//
// Implementations are not safe for concurrent use by multiple goroutines.
// Immediately after AddEmbedding returns, GetEmbedding and Search for that id
// succeed. Result ordering is deterministic: strictly descending by score,
// ties broken by insertion order.
type VectorStore interface {
	// AddEmbedding stores one embedding and returns its id, generating one
	// when the caller supplies none.
	AddEmbedding(ctx context.Context, emb *model.Embedding) (string, error)

	// AddEmbeddings stores embeddings in fixed-size batches and returns the
	// ids in input order. Batches commit independently: a mid-batch failure
	// leaves earlier batches persisted with no rollback, and the error
	// reports the failing batch only.
	AddEmbeddings(ctx context.Context, embs []*model.Embedding) ([]string, error)

	// GetEmbedding returns the embedding with the given id, or an error
	// satisfying errors.Is(err, ErrNotFound).
	GetEmbedding(ctx context.Context, id string) (*model.Embedding, error)

	// DeleteEmbedding removes one embedding. Deleting a non-existent id is
	// not an error.
	DeleteEmbedding(ctx context.Context, id string) error

	// DeleteEmbeddings removes every embedding owned by the document.
	// Idempotent.
	DeleteEmbeddings(ctx context.Context, documentID string) error

	// Search ranks stored embeddings against the query vector. See Rank for
	// the algorithm shared by all backends.
	Search(ctx context.Context, query []float32, optFns ...SearchOption) ([]model.ScoredResult, error)

	// Embeddings returns every stored embedding in insertion order.
	Embeddings(ctx context.Context) ([]*model.Embedding, error)

	// Count returns the number of stored embeddings.
	Count(ctx context.Context) (int, error)

	// Clear removes every embedding and any backing resource.
	Clear(ctx context.Context) error
}
