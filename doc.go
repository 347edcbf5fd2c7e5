// Package vecstore provides vector-embedding storage and exact
// similarity retrieval with pluggable backends.
//
// Three backends implement the VectorStore contract:
//
//   - MemoryStore: ephemeral, process-resident maps
//   - FileStore: durable directory of per-embedding sidecar files with a
//     lazily populated read-through cache
//   - ExternalStore: a façade over Postgres with the pgvector extension
//
// A Manager tracks named stores and resolves a default. All backends share
// one deterministic ranking algorithm: exact-match metadata filtering, full
// cosine similarity (zero-magnitude vectors score 0.0), a strict minimum
// score threshold, descending order with insertion-order tie-breaks, and a
// final limit.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := vecstore.NewMemoryStore()
//
//	id, err := store.AddEmbedding(ctx, &model.Embedding{
//	    DocumentID: "doc-1",
//	    Content:    "the quick brown fox",
//	    Vector:     []float32{0.1, 0.7, 0.2},
//	    Metadata:   metadata.Metadata{"lang": "en"},
//	})
//
//	results, err := store.Search(ctx, query,
//	    vecstore.WithLimit(5),
//	    vecstore.WithMinScore(0.25),
//	    vecstore.WithFilter(metadata.Filter{"lang": "en"}),
//	)
//
// # Concurrency
//
// Operations may block on I/O but perform no internal parallel execution.
// Stores and the Manager are not safe for concurrent use by multiple
// goroutines; callers supply their own synchronization when sharing them.
//
// # Batch semantics
//
// AddEmbeddings commits fixed-size batches independently. A mid-batch
// failure leaves earlier batches committed; there is no rollback. Retry
// policy belongs to the caller.
package vecstore
