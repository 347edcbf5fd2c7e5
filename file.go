package vecstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
	"github.com/hupe1980/vecstore/vecfmt"
)

// metaExt is the suffix of the JSON metadata sidecar written next to each
// vector payload file.
const metaExt = ".meta.json"

// cacheState is the two-state machine guarding the FileStore cache:
// the backing directory is scanned exactly once, on the first access after
// construction or Invalidate.
type cacheState int

const (
	cacheUnloaded cacheState = iota
	cacheLoaded
)

// fileSidecar is the on-disk shape of the metadata sidecar.
type fileSidecar struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content,omitempty"`
	Metadata   metadata.Metadata `json:"metadata,omitempty"`
}

// FileStore is a durable VectorStore backed by a directory. Each embedding
// is persisted as two sidecar files under a collection-named subdirectory:
// "<id>.vec" (binary vector payload) and "<id>.meta.json".
//
// An in-memory cache mirrors the directory and is populated lazily on first
// access; afterwards every add and delete keeps it incrementally consistent
// and the directory is never rescanned unless Invalidate is called. A cache
// freshly loaded from disk has no insertion history, so its scan order (and
// therefore search tie-breaking) is lexicographic by id; subsequent adds
// append.
//
// Not safe for concurrent use by multiple goroutines.
type FileStore struct {
	opts       options
	score      ScoreFunc
	dir        string
	collection string
	state      cacheState
	dim        int
	records    map[string]*model.Embedding
	order      []string
}

var _ VectorStore = (*FileStore)(nil)

// NewFileStore creates a file-backed vector store rooted at
// root/collection, creating the directory if needed.
func NewFileStore(root, collection string, optFns ...Option) (*FileStore, error) {
	if collection == "" {
		return nil, storeErr("open", "", root, errors.New("collection name required"))
	}
	dir := filepath.Join(root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeErr("open", "", dir, err)
	}
	opts := applyOptions(optFns)
	return &FileStore{
		opts:       opts,
		score:      scoreFuncFor(opts),
		dir:        dir,
		collection: collection,
		state:      cacheUnloaded,
	}, nil
}

// Dir returns the directory holding this store's sidecar files.
func (s *FileStore) Dir() string { return s.dir }

// Invalidate discards the cache. The next access rescans the directory.
func (s *FileStore) Invalidate() {
	s.state = cacheUnloaded
	s.records = nil
	s.order = nil
	s.dim = 0
}

// ensureLoaded scans the directory exactly once per Unloaded->Loaded
// transition and fills the cache with every discoverable id/vector/metadata
// triple.
func (s *FileStore) ensureLoaded() error {
	if s.state == cacheLoaded {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return storeErr("load", "", s.dir, err)
	}

	records := make(map[string]*model.Embedding)
	var order []string
	dim := 0
	// os.ReadDir sorts by filename, so ids load in lexicographic order.
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, vecfmt.FileExt) {
			continue
		}
		id := strings.TrimSuffix(name, vecfmt.FileExt)
		rec, err := s.readEmbedding(id)
		if err != nil {
			return err
		}
		// The first record establishes the collection dimensionality; a
		// record that disagrees must not reach the scoring kernels.
		if dim == 0 {
			dim = len(rec.Vector)
		} else if len(rec.Vector) != dim {
			return storeErr("load", id, s.vecPath(id),
				&DimensionMismatchError{Expected: dim, Actual: len(rec.Vector)})
		}
		records[id] = rec
		order = append(order, id)
	}

	s.records = records
	s.order = order
	s.dim = dim
	s.state = cacheLoaded
	return nil
}

func (s *FileStore) vecPath(id string) string  { return filepath.Join(s.dir, id+vecfmt.FileExt) }
func (s *FileStore) metaPath(id string) string { return filepath.Join(s.dir, id+metaExt) }

func (s *FileStore) readEmbedding(id string) (*model.Embedding, error) {
	raw, err := os.ReadFile(s.vecPath(id))
	if err != nil {
		return nil, storeErr("read", id, s.vecPath(id), err)
	}
	payload, err := vecfmt.Deserialize(raw, func(o *vecfmt.Options) { o.Codec = s.opts.codec })
	if err != nil {
		return nil, storeErr("read", id, s.vecPath(id), err)
	}
	if payload.Count != 1 {
		return nil, storeErr("read", id, s.vecPath(id),
			fmt.Errorf("%w: expected a single vector, got %d", vecfmt.ErrFormat, payload.Count))
	}

	var side fileSidecar
	metaRaw, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, storeErr("read", id, s.metaPath(id), err)
	}
	if err := s.opts.codec.Unmarshal(metaRaw, &side); err != nil {
		return nil, storeErr("read", id, s.metaPath(id), err)
	}

	return &model.Embedding{
		ID:         id,
		DocumentID: side.DocumentID,
		Content:    side.Content,
		Vector:     payload.Data,
		Metadata:   side.Metadata,
	}, nil
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// partially written sidecar.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) checkDimension(vec []float32) error {
	if s.dim != 0 && len(vec) != s.dim {
		return &DimensionMismatchError{Expected: s.dim, Actual: len(vec)}
	}
	return nil
}

// AddEmbedding persists both sidecar files, then updates the cache.
func (s *FileStore) AddEmbedding(ctx context.Context, emb *model.Embedding) (string, error) {
	if err := s.ensureLoaded(); err != nil {
		return "", err
	}
	if err := s.checkDimension(emb.Vector); err != nil {
		s.opts.logger.LogAdd(ctx, emb.ID, len(emb.Vector), err)
		return "", storeErr("add", emb.ID, s.dir, err)
	}

	rec := emb.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	vecBytes, err := vecfmt.Serialize(rec.Vector, len(rec.Vector), 1, nil,
		func(o *vecfmt.Options) { o.Codec = s.opts.codec })
	if err != nil {
		return "", storeErr("add", rec.ID, s.dir, err)
	}
	metaBytes, err := s.opts.codec.Marshal(fileSidecar{
		DocumentID: rec.DocumentID,
		Content:    rec.Content,
		Metadata:   rec.Metadata,
	})
	if err != nil {
		return "", storeErr("add", rec.ID, s.dir, err)
	}

	if err := writeFileAtomic(s.vecPath(rec.ID), vecBytes); err != nil {
		s.opts.logger.LogAdd(ctx, rec.ID, len(rec.Vector), err)
		return "", storeErr("add", rec.ID, s.vecPath(rec.ID), err)
	}
	if err := writeFileAtomic(s.metaPath(rec.ID), metaBytes); err != nil {
		// Do not leave an orphaned vector payload behind.
		_ = os.Remove(s.vecPath(rec.ID))
		s.opts.logger.LogAdd(ctx, rec.ID, len(rec.Vector), err)
		return "", storeErr("add", rec.ID, s.metaPath(rec.ID), err)
	}

	// Only a persisted add establishes the dimensionality; a failed first
	// write must not leave one behind on an empty store.
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

// AddEmbeddings persists embeddings in batches of the configured size.
// Batches commit independently; the returned error reports the failing batch
// and ids committed before it remain persisted.
func (s *FileStore) AddEmbeddings(ctx context.Context, embs []*model.Embedding) ([]string, error) {
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

// GetEmbedding returns a copy of the cached embedding.
func (s *FileStore) GetEmbedding(_ context.Context, id string) (*model.Embedding, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

// removeFiles deletes both sidecar files for id. Missing files are fine;
// any other failure propagates before the cache is touched, keeping cache
// and filesystem consistent with each other.
func (s *FileStore) removeFiles(id string) error {
	if err := os.Remove(s.vecPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storeErr("delete", id, s.vecPath(id), err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storeErr("delete", id, s.metaPath(id), err)
	}
	return nil
}

// DeleteEmbedding removes the backing files, then the cache entry.
// Idempotent.
func (s *FileStore) DeleteEmbedding(ctx context.Context, id string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if _, ok := s.records[id]; !ok {
		return nil
	}
	if err := s.removeFiles(id); err != nil {
		s.opts.logger.LogDelete(ctx, id, err)
		return err
	}
	delete(s.records, id)
	kept := s.order[:0]
	for _, other := range s.order {
		if other != id {
			kept = append(kept, other)
		}
	}
	s.order = kept
	s.opts.logger.LogDelete(ctx, id, nil)
	return nil
}

// DeleteEmbeddings removes every embedding owned by the document.
// Idempotent; a file-removal failure propagates after the ids already
// processed have been removed from both filesystem and cache.
func (s *FileStore) DeleteEmbeddings(ctx context.Context, documentID string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	var owned []string
	for _, id := range s.order {
		if rec := s.records[id]; rec != nil && rec.DocumentID == documentID {
			owned = append(owned, id)
		}
	}
	for _, id := range owned {
		if err := s.DeleteEmbedding(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Search runs the shared linear-scan ranking against the cache.
func (s *FileStore) Search(ctx context.Context, query []float32, optFns ...SearchOption) ([]model.ScoredResult, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	opts := applySearchOptions(optFns)

	if s.dim != 0 && len(query) != s.dim {
		err := &DimensionMismatchError{Expected: s.dim, Actual: len(query)}
		s.opts.logger.LogSearch(ctx, opts.Limit, 0, err)
		return nil, storeErr("search", "", s.dir, err)
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

// Embeddings returns copies of every cached embedding.
func (s *FileStore) Embeddings(_ context.Context) ([]*model.Embedding, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]*model.Embedding, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

// Count returns the number of cached embeddings.
func (s *FileStore) Count(_ context.Context) (int, error) {
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(s.records), nil
}

// Clear removes the collection directory and resets the cache. The store
// remains usable and accepts a new dimensionality afterwards.
func (s *FileStore) Clear(ctx context.Context) error {
	removed := len(s.records)
	if err := os.RemoveAll(s.dir); err != nil {
		s.opts.logger.LogClear(ctx, 0, err)
		return storeErr("clear", "", s.dir, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return storeErr("clear", "", s.dir, err)
	}
	s.records = make(map[string]*model.Embedding)
	s.order = nil
	s.dim = 0
	s.state = cacheLoaded
	s.opts.logger.LogClear(ctx, removed, nil)
	return nil
}
