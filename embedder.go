package vecstore

import (
	"context"
	"fmt"

	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
)

// Embedder is an externally supplied capability that maps text to
// fixed-length vectors. It is consumed as an opaque black box and never
// introspected; which model produced the vectors is the caller's concern.
type Embedder interface {
	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document texts, one vector per text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// AddDocument embeds pre-chunked document text and stores one embedding per
// chunk, all owned by documentID and sharing the given metadata. Returns the
// chunk ids in input order. Chunking itself is the caller's responsibility.
func AddDocument(ctx context.Context, store VectorStore, embedder Embedder, documentID string, chunks []string, meta metadata.Metadata) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	vectors, err := embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed document %s: %w", documentID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed document %s: got %d vectors for %d chunks", documentID, len(vectors), len(chunks))
	}

	embs := make([]*model.Embedding, len(chunks))
	for i, chunk := range chunks {
		embs[i] = &model.Embedding{
			DocumentID: documentID,
			Content:    chunk,
			Vector:     vectors[i],
			Metadata:   meta,
		}
	}
	return store.AddEmbeddings(ctx, embs)
}

// SearchText embeds the query text and ranks stored embeddings against it.
func SearchText(ctx context.Context, store VectorStore, embedder Embedder, query string, optFns ...SearchOption) ([]model.ScoredResult, error) {
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return store.Search(ctx, vec, optFns...)
}
