package vecstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/vecstore/model"
)

// MemoryStore is an ephemeral VectorStore backed by process-resident maps.
// Contents live for the lifetime of the store instance.
//
// Not safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	opts    options
	score   ScoreFunc
	dim     int // established by the first successful add, 0 while empty
	records map[string]*model.Embedding
	order   []string
}

var _ VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory vector store.
func NewMemoryStore(optFns ...Option) *MemoryStore {
	opts := applyOptions(optFns)
	return &MemoryStore{
		opts:    opts,
		score:   scoreFuncFor(opts),
		records: make(map[string]*model.Embedding),
	}
}

func (s *MemoryStore) checkDimension(vec []float32) error {
	if s.dim != 0 && len(vec) != s.dim {
		return &DimensionMismatchError{Expected: s.dim, Actual: len(vec)}
	}
	return nil
}

// AddEmbedding stores one embedding, generating an id when none is supplied.
// Re-adding an existing id replaces the record in place, keeping its original
// insertion position.
func (s *MemoryStore) AddEmbedding(ctx context.Context, emb *model.Embedding) (string, error) {
	if err := s.checkDimension(emb.Vector); err != nil {
		s.opts.logger.LogAdd(ctx, emb.ID, len(emb.Vector), err)
		return "", storeErr("add", emb.ID, "", err)
	}

	rec := emb.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if s.dim == 0 {
		s.dim = len(rec.Vector)
	}
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec

	s.opts.logger.LogAdd(ctx, rec.ID, len(rec.Vector), nil)
	return rec.ID, nil
}

// AddEmbeddings stores embeddings in batches of the configured size. On a
// mid-batch failure the ids committed so far are returned alongside the
// error; earlier batches stay committed.
func (s *MemoryStore) AddEmbeddings(ctx context.Context, embs []*model.Embedding) ([]string, error) {
	ids := make([]string, 0, len(embs))
	for start := 0; start < len(embs); start += s.opts.batchSize {
		end := min(start+s.opts.batchSize, len(embs))
		for _, emb := range embs[start:end] {
			id, err := s.AddEmbedding(ctx, emb)
			if err != nil {
				s.opts.logger.LogBatchAdd(ctx, len(embs), len(ids), err)
				return ids, fmt.Errorf("batch starting at %d: %w", start, err)
			}
			ids = append(ids, id)
		}
	}
	s.opts.logger.LogBatchAdd(ctx, len(embs), len(ids), nil)
	return ids, nil
}

// GetEmbedding returns a copy of the stored embedding.
func (s *MemoryStore) GetEmbedding(_ context.Context, id string) (*model.Embedding, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

// DeleteEmbedding removes one embedding. Idempotent.
func (s *MemoryStore) DeleteEmbedding(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	s.removeFromOrder(func(candidate string) bool { return candidate == id })
	s.opts.logger.LogDelete(ctx, id, nil)
	return nil
}

// DeleteEmbeddings removes every embedding owned by the document. Idempotent.
func (s *MemoryStore) DeleteEmbeddings(ctx context.Context, documentID string) error {
	s.removeFromOrder(func(id string) bool {
		rec := s.records[id]
		if rec == nil || rec.DocumentID != documentID {
			return false
		}
		delete(s.records, id)
		s.opts.logger.LogDelete(ctx, id, nil)
		return true
	})
	return nil
}

func (s *MemoryStore) removeFromOrder(drop func(id string) bool) {
	kept := s.order[:0]
	for _, id := range s.order {
		if !drop(id) {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// Search performs a full linear scan over the resident records.
func (s *MemoryStore) Search(ctx context.Context, query []float32, optFns ...SearchOption) ([]model.ScoredResult, error) {
	opts := applySearchOptions(optFns)

	if s.dim != 0 && len(query) != s.dim {
		err := &DimensionMismatchError{Expected: s.dim, Actual: len(query)}
		s.opts.logger.LogSearch(ctx, opts.Limit, 0, err)
		return nil, storeErr("search", "", "", err)
	}

	candidates := make([]*model.Embedding, 0, len(s.order))
	for _, id := range s.order {
		candidates = append(candidates, s.records[id])
	}

	results := Rank(query, candidates, s.score, opts)
	for i := range results {
		results[i].Embedding = results[i].Embedding.Clone()
	}

	s.opts.logger.LogSearch(ctx, opts.Limit, len(results), nil)
	return results, nil
}

// Embeddings returns copies of every stored embedding in insertion order.
func (s *MemoryStore) Embeddings(_ context.Context) ([]*model.Embedding, error) {
	out := make([]*model.Embedding, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

// Count returns the number of stored embeddings.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	return len(s.records), nil
}

// Clear removes every embedding. The store accepts a new dimensionality
// afterwards.
func (s *MemoryStore) Clear(ctx context.Context) error {
	removed := len(s.records)
	s.records = make(map[string]*model.Embedding)
	s.order = nil
	s.dim = 0
	s.opts.logger.LogClear(ctx, removed, nil)
	return nil
}
