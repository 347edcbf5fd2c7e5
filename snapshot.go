package vecstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/vecstore/codec"
	"github.com/hupe1980/vecstore/metadata"
	"github.com/hupe1980/vecstore/model"
	"github.com/hupe1980/vecstore/vecfmt"
)

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	// Compress enables zstd compression of the payload. Restore detects
	// compression from the leading bytes, so no flag travels with the file.
	Compress bool

	// Codec encodes the metadata block. Defaults to codec.Default.
	Codec codec.Codec
}

// snapshotRecord carries the non-vector fields of one embedding inside the
// payload's metadata block, index-aligned with the vector rows.
type snapshotRecord struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content,omitempty"`
	Metadata   metadata.Metadata `json:"metadata,omitempty"`
}

// Snapshot exports every embedding of a store as a single binary vector
// payload, optionally zstd-compressed. The payload is a regular vecfmt file:
// vectors in row-major order, ids/documents/metadata in the metadata block.
func Snapshot(ctx context.Context, store VectorStore, w io.Writer, optFns ...func(o *SnapshotOptions)) error {
	var opts SnapshotOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	embs, err := store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	dims := 0
	if len(embs) > 0 {
		dims = len(embs[0].Vector)
	}

	data := make([]float32, 0, len(embs)*dims)
	records := make([]snapshotRecord, 0, len(embs))
	for _, emb := range embs {
		if len(emb.Vector) != dims {
			return fmt.Errorf("snapshot: %w",
				&DimensionMismatchError{Expected: dims, Actual: len(emb.Vector)})
		}
		data = append(data, emb.Vector...)
		records = append(records, snapshotRecord{
			ID:         emb.ID,
			DocumentID: emb.DocumentID,
			Content:    emb.Content,
			Metadata:   emb.Metadata,
		})
	}

	payload, err := vecfmt.Serialize(data, dims, len(embs),
		metadata.Metadata{"records": records},
		func(o *vecfmt.Options) { o.Codec = c })
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if opts.Compress {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if _, err := enc.Write(payload); err != nil {
			_ = enc.Close()
			return fmt.Errorf("snapshot: %w", err)
		}
		return enc.Close()
	}

	_, err = w.Write(payload)
	return err
}

// Restore reads a Snapshot payload and adds every embedding to the store,
// returning the number restored. Compression is detected from the leading
// magic bytes.
func Restore(ctx context.Context, store VectorStore, r io.Reader, optFns ...func(o *SnapshotOptions)) (int, error) {
	var opts SnapshotOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}

	if len(raw) < 4 || binary.BigEndian.Uint32(raw) != vecfmt.Magic {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return 0, fmt.Errorf("restore: %w", err)
		}
		defer dec.Close()
		raw, err = dec.DecodeAll(raw, nil)
		if err != nil {
			return 0, fmt.Errorf("restore: %w", err)
		}
	}

	payload, err := vecfmt.Deserialize(raw, func(o *vecfmt.Options) { o.Codec = c })
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}

	// The records come back as generic JSON; round-trip through the codec
	// into the typed shape.
	var records []snapshotRecord
	if rawRecords, ok := payload.Metadata["records"]; ok {
		b, err := c.Marshal(rawRecords)
		if err != nil {
			return 0, fmt.Errorf("restore: %w", err)
		}
		if err := c.Unmarshal(b, &records); err != nil {
			return 0, fmt.Errorf("restore: %w", err)
		}
	}
	if len(records) != payload.Count {
		return 0, fmt.Errorf("restore: %w: %d records for %d vectors",
			vecfmt.ErrFormat, len(records), payload.Count)
	}

	embs := make([]*model.Embedding, 0, payload.Count)
	for i := 0; i < payload.Count; i++ {
		embs = append(embs, &model.Embedding{
			ID:         records[i].ID,
			DocumentID: records[i].DocumentID,
			Content:    records[i].Content,
			Vector:     payload.Vector(i),
			Metadata:   records[i].Metadata,
		})
	}

	ids, err := store.AddEmbeddings(ctx, embs)
	if err != nil {
		return len(ids), fmt.Errorf("restore: %w", err)
	}
	return len(ids), nil
}
