package vecstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
)

// DefaultExternalDimension is assumed when no dimension is configured for an
// ExternalStore. The remote table is declared with a fixed dimensionality.
const DefaultExternalDimension = 1536

// ExternalStore is a façade over a remote, collection-oriented vector
// database: Postgres with the pgvector extension.
//
// The remote dependency measures cosine distance, bounded to [0,2]; scores
// are translated onto the engine's normalized scale as
//
//	score = 1 - distance/2
//
// The connection and target table are established lazily on first use and
// reused afterwards. Metadata sent to the dependency is restricted to
// JSON-primitive values: complex or nested values are stringified before
// being sent. Timeout enforcement is the driver's responsibility.
//
// Not safe for concurrent use by multiple goroutines.
type ExternalStore struct {
	opts       options
	dsn        string
	collection string
	dimension  int
	db         *sql.DB
	ownsDB     bool
	ready      bool
}

var _ VectorStore = (*ExternalStore)(nil)

// NewExternalStore creates an external store for the given collection.
// No connection is made until the first operation.
func NewExternalStore(dsn, collection string, dimension int, optFns ...Option) *ExternalStore {
	if dimension <= 0 {
		dimension = DefaultExternalDimension
	}
	return &ExternalStore{
		opts:       applyOptions(optFns),
		dsn:        dsn,
		collection: collection,
		dimension:  dimension,
		ownsDB:     true,
	}
}

// NewExternalStoreFromDB reuses an existing *sql.DB, for callers that manage
// pooling themselves. The store does not close the handle.
func NewExternalStoreFromDB(db *sql.DB, collection string, dimension int, optFns ...Option) *ExternalStore {
	if dimension <= 0 {
		dimension = DefaultExternalDimension
	}
	return &ExternalStore{
		opts:       applyOptions(optFns),
		collection: collection,
		dimension:  dimension,
		db:         db,
		ownsDB:     false,
	}
}

// WithCollection returns a transient adapter scoped to another collection.
// It shares the primary instance's connection when one is established and
// leaves the primary's state untouched either way.
func (s *ExternalStore) WithCollection(collection string) *ExternalStore {
	if collection == s.collection {
		return s
	}
	t := &ExternalStore{
		opts:       s.opts,
		dsn:        s.dsn,
		collection: collection,
		dimension:  s.dimension,
	}
	if s.db != nil {
		t.db = s.db
		t.ownsDB = false
	} else {
		t.ownsDB = true
	}
	return t
}

// Collection returns the remote collection (table) name.
func (s *ExternalStore) Collection() string { return s.collection }

// Close releases the connection when this instance owns it.
func (s *ExternalStore) Close() error {
	if s.db != nil && s.ownsDB {
		err := s.db.Close()
		s.db = nil
		s.ready = false
		return err
	}
	return nil
}

func (s *ExternalStore) table() string {
	return pq.QuoteIdentifier(s.collection)
}

// ensureReady lazily establishes the connection and the target collection on
// first use; subsequent calls are no-ops.
func (s *ExternalStore) ensureReady(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if s.db == nil {
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			return storeErr("connect", "", s.collection, err)
		}
		s.db = db
	}
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr("connect", "", s.collection, err)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  seq         bigserial,
  id          text PRIMARY KEY,
  document_id text,
  content     text,
  embedding   vector(%d),
  metadata    jsonb
);
CREATE INDEX IF NOT EXISTS %s ON %s (document_id);
`, s.table(), s.dimension, pq.QuoteIdentifier(s.collection+"_document_idx"), s.table())
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return storeErr("create collection", "", s.collection, err)
	}

	s.ready = true
	return nil
}

func (s *ExternalStore) checkDimension(vec []float32) error {
	if len(vec) != s.dimension {
		return &DimensionMismatchError{Expected: s.dimension, Actual: len(vec)}
	}
	return nil
}

// vectorLiteral renders a vector in pgvector's textual form, e.g. "[1,0.5]".
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVectorLiteral parses pgvector's textual form back into a slice.
func parseVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if len(lit) < 2 || lit[0] != '[' || lit[len(lit)-1] != ']' {
		return nil, fmt.Errorf("invalid vector literal %q", lit)
	}
	inner := lit[1 : len(lit)-1]
	if inner == "" {
		return nil, nil
	}
	parts := strings.Split(inner, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector literal %q: %w", lit, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// externalScore translates the dependency's native cosine distance, bounded
// to [0,2], into the engine's normalized similarity scale.
func externalScore(distance float64) float32 {
	return float32(1 - distance/2)
}

// externalMetadata restricts metadata to the JSON-primitive values the
// dependency accepts and encodes it for the jsonb column.
func (s *ExternalStore) externalMetadata(meta metadata.Metadata) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	return s.opts.codec.Marshal(meta.Primitives())
}

func (s *ExternalStore) upsertOne(ctx context.Context, q interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, rec *model.Embedding) error {
	metaBytes, err := s.externalMetadata(rec.Metadata)
	if err != nil {
		return storeErr("add", rec.ID, s.collection, err)
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s (id, document_id, content, embedding, metadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  document_id = EXCLUDED.document_id,
  content     = EXCLUDED.content,
  embedding   = EXCLUDED.embedding,
  metadata    = EXCLUDED.metadata
`, s.table())
	if _, err := q.ExecContext(ctx, stmt, rec.ID, rec.DocumentID, rec.Content, vectorLiteral(rec.Vector), metaBytes); err != nil {
		return storeErr("add", rec.ID, s.collection, err)
	}
	return nil
}

// AddEmbedding sends one embedding to the remote collection.
func (s *ExternalStore) AddEmbedding(ctx context.Context, emb *model.Embedding) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}
	if err := s.checkDimension(emb.Vector); err != nil {
		s.opts.logger.LogAdd(ctx, emb.ID, len(emb.Vector), err)
		return "", storeErr("add", emb.ID, s.collection, err)
	}
	rec := emb.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.upsertOne(ctx, s.db, rec); err != nil {
		s.opts.logger.LogAdd(ctx, rec.ID, len(rec.Vector), err)
		return "", err
	}
	s.opts.logger.LogAdd(ctx, rec.ID, len(rec.Vector), nil)
	return rec.ID, nil
}

// AddEmbeddings sends embeddings in batches of the configured size, one
// transaction per batch to bound the network payload. Batches commit
// independently; a failure rolls back the failing batch only.
func (s *ExternalStore) AddEmbeddings(ctx context.Context, embs []*model.Embedding) ([]string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(embs))
	for start := 0; start < len(embs); start += s.opts.batchSize {
		end := min(start+s.opts.batchSize, len(embs))

		batchIDs, err := s.addBatch(ctx, embs[start:end])
		if err != nil {
			s.opts.logger.LogBatchAdd(ctx, len(embs), len(ids), err)
			return ids, fmt.Errorf("batch starting at %d: %w", start, err)
		}
		ids = append(ids, batchIDs...)
	}
	s.opts.logger.LogBatchAdd(ctx, len(embs), len(ids), nil)
	return ids, nil
}

func (s *ExternalStore) addBatch(ctx context.Context, embs []*model.Embedding) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("add", "", s.collection, err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids := make([]string, 0, len(embs))
	for _, emb := range embs {
		if err := s.checkDimension(emb.Vector); err != nil {
			return nil, storeErr("add", emb.ID, s.collection, err)
		}
		rec := emb.Clone()
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := s.upsertOne(ctx, tx, rec); err != nil {
			return nil, err
		}
		ids = append(ids, rec.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("add", "", s.collection, err)
	}
	return ids, nil
}

// GetEmbedding fetches one record from the remote collection.
func (s *ExternalStore) GetEmbedding(ctx context.Context, id string) (*model.Embedding, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT document_id, content, embedding::text, metadata FROM %s WHERE id = $1`, s.table())

	var (
		docID, content string
		embText        string
		metaBytes      []byte
	)
	err := s.db.QueryRowContext(ctx, stmt, id).Scan(&docID, &content, &embText, &metaBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("get", id, s.collection, err)
	}

	vec, err := parseVectorLiteral(embText)
	if err != nil {
		return nil, storeErr("get", id, s.collection, err)
	}
	var meta metadata.Metadata
	if len(metaBytes) > 0 {
		if err := s.opts.codec.Unmarshal(metaBytes, &meta); err != nil {
			return nil, storeErr("get", id, s.collection, err)
		}
	}

	return &model.Embedding{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		Vector:     vec,
		Metadata:   meta,
	}, nil
}

// DeleteEmbedding removes one record. Idempotent.
func (s *ExternalStore) DeleteEmbedding(ctx context.Context, id string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table())
	if _, err := s.db.ExecContext(ctx, stmt, id); err != nil {
		s.opts.logger.LogDelete(ctx, id, err)
		return storeErr("delete", id, s.collection, err)
	}
	s.opts.logger.LogDelete(ctx, id, nil)
	return nil
}

// DeleteEmbeddings removes every record owned by the document. Idempotent.
func (s *ExternalStore) DeleteEmbeddings(ctx context.Context, documentID string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, s.table())
	if _, err := s.db.ExecContext(ctx, stmt, documentID); err != nil {
		return storeErr("delete", documentID, s.collection, err)
	}
	return nil
}

// Search lets the dependency rank by its native cosine distance and
// translates scores onto the [0,1] scale. Ordering matches the shared
// algorithm: score descending, insertion order on ties, limit last.
func (s *ExternalStore) Search(ctx context.Context, query []float32, optFns ...SearchOption) ([]model.ScoredResult, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	opts := applySearchOptions(optFns)

	if len(query) != s.dimension {
		err := &DimensionMismatchError{Expected: s.dimension, Actual: len(query)}
		s.opts.logger.LogSearch(ctx, opts.Limit, 0, err)
		return nil, storeErr("search", "", s.collection, err)
	}

	args := []any{vectorLiteral(query)}
	where := make([]string, 0, 2)

	if opts.MinScore > 0 {
		args = append(args, float64(opts.MinScore))
		where = append(where, fmt.Sprintf(`1 - (embedding <=> $1) / 2 >= $%d`, len(args)))
	}
	if len(opts.Filter) > 0 {
		filterBytes, err := s.opts.codec.Marshal(metadata.Metadata(opts.Filter).Primitives())
		if err != nil {
			return nil, storeErr("search", "", s.collection, err)
		}
		args = append(args, filterBytes)
		where = append(where, fmt.Sprintf(`metadata @> $%d`, len(args)))
	}

	stmt := fmt.Sprintf(`
SELECT id, document_id, content, embedding::text, metadata, 1 - (embedding <=> $1) / 2 AS score
FROM %s`, s.table())
	if len(where) > 0 {
		stmt += "\nWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit)
	stmt += fmt.Sprintf("\nORDER BY embedding <=> $1 ASC, seq ASC\nLIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		s.opts.logger.LogSearch(ctx, opts.Limit, 0, err)
		return nil, storeErr("search", "", s.collection, err)
	}
	defer rows.Close()

	var results []model.ScoredResult
	for rows.Next() {
		var (
			id, docID, content string
			embText            string
			metaBytes          []byte
			score              float64
		)
		if err := rows.Scan(&id, &docID, &content, &embText, &metaBytes, &score); err != nil {
			return nil, storeErr("search", "", s.collection, err)
		}
		vec, err := parseVectorLiteral(embText)
		if err != nil {
			return nil, storeErr("search", id, s.collection, err)
		}
		var meta metadata.Metadata
		if len(metaBytes) > 0 {
			if err := s.opts.codec.Unmarshal(metaBytes, &meta); err != nil {
				return nil, storeErr("search", id, s.collection, err)
			}
		}
		results = append(results, model.ScoredResult{
			Embedding: &model.Embedding{
				ID:         id,
				DocumentID: docID,
				Content:    content,
				Vector:     vec,
				Metadata:   meta,
			},
			Score: float32(score),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("search", "", s.collection, err)
	}

	s.opts.logger.LogSearch(ctx, opts.Limit, len(results), nil)
	return results, nil
}

// Embeddings returns every record in insertion order.
func (s *ExternalStore) Embeddings(ctx context.Context) ([]*model.Embedding, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT id, document_id, content, embedding::text, metadata FROM %s ORDER BY seq ASC`, s.table())

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, storeErr("list", "", s.collection, err)
	}
	defer rows.Close()

	var out []*model.Embedding
	for rows.Next() {
		var (
			id, docID, content string
			embText            string
			metaBytes          []byte
		)
		if err := rows.Scan(&id, &docID, &content, &embText, &metaBytes); err != nil {
			return nil, storeErr("list", "", s.collection, err)
		}
		vec, err := parseVectorLiteral(embText)
		if err != nil {
			return nil, storeErr("list", id, s.collection, err)
		}
		var meta metadata.Metadata
		if len(metaBytes) > 0 {
			if err := s.opts.codec.Unmarshal(metaBytes, &meta); err != nil {
				return nil, storeErr("list", id, s.collection, err)
			}
		}
		out = append(out, &model.Embedding{
			ID:         id,
			DocumentID: docID,
			Content:    content,
			Vector:     vec,
			Metadata:   meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", "", s.collection, err)
	}
	return out, nil
}

// Count returns the remote collection's record count.
func (s *ExternalStore) Count(ctx context.Context) (int, error) {
	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf(`SELECT count(*) FROM %s`, s.table())
	var n int
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, storeErr("count", "", s.collection, err)
	}
	return n, nil
}

// Clear drops the remote collection. The next operation recreates it.
func (s *ExternalStore) Clear(ctx context.Context) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table())
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		s.opts.logger.LogClear(ctx, 0, err)
		return storeErr("clear", "", s.collection, err)
	}
	s.ready = false
	s.opts.logger.LogClear(ctx, 0, nil)
	return nil
}
