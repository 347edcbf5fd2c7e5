package model

import (
	"fmt"

	"github.com/hupe1980/vecstore/metadata"
)

// Embedding is the unit of storage: one fixed-length vector representing a
// chunk of a document, together with its free-form metadata.
//
// Within a single store, ID is unique. DocumentID is not: one document yields
// many embeddings. Embeddings are never mutated in place; an update is a
// delete followed by an add.
type Embedding struct {
	// ID is the chunk-level key, unique within one store.
	// Stores assign a generated id when it is empty.
	ID string

	// DocumentID references the owning document.
	DocumentID string

	// Content is the original text the vector was computed from.
	Content string

	// Vector is the embedding itself. All embeddings in one store share
	// the same length.
	Vector []float32

	// Metadata carries free-form key/value pairs used for filtering.
	Metadata metadata.Metadata
}

// Dimension returns the length of the embedding vector.
func (e *Embedding) Dimension() int { return len(e.Vector) }

// String returns a short representation for logging.
func (e *Embedding) String() string {
	return fmt.Sprintf("Embedding(%s doc=%s dim=%d)", e.ID, e.DocumentID, len(e.Vector))
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate cached state through the returned value.
func (e *Embedding) Clone() *Embedding {
	if e == nil {
		return nil
	}
	c := &Embedding{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		Content:    e.Content,
	}
	if e.Vector != nil {
		c.Vector = make([]float32, len(e.Vector))
		copy(c.Vector, e.Vector)
	}
	if e.Metadata != nil {
		c.Metadata = e.Metadata.Clone()
	}
	return c
}

// ScoredResult pairs an embedding with its similarity score.
//
// Score is normalized to [0,1]: 1.0 means identical direction, 0.0 is the
// defined value for degenerate (zero-magnitude) vectors.
type ScoredResult struct {
	Embedding *Embedding
	Score     float32
}
