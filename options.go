package vecstore

import (
	"github.com/hupe1980/vecstore/codec"
	"github.com/hupe1980/vecstore/metadata"
)

// DefaultBatchSize is the number of embeddings committed per batch by
// AddEmbeddings when no other size is configured.
const DefaultBatchSize = 100

// DefaultSearchLimit is the number of results returned by Search when no
// limit is configured.
const DefaultSearchLimit = 10

type options struct {
	batchSize     int
	logger        *Logger
	codec         codec.Codec
	preNormalized bool
}

// Option configures store construction.
type Option func(*options)

func applyOptions(optFns []Option) options {
	opts := options{
		batchSize: DefaultBatchSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.batchSize <= 0 {
		opts.batchSize = DefaultBatchSize
	}
	if opts.logger == nil {
		opts.logger = NoopLogger()
	}
	if opts.codec == nil {
		opts.codec = codec.Default
	}
	return opts
}

// WithBatchSize configures how many embeddings AddEmbeddings commits per
// batch. Batches bound peak memory and network payload; they are not
// transactional across batch boundaries.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithLogger configures structured logging for store operations.
// The default discards all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCodec configures the codec used for metadata sidecars and payload
// metadata blocks. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithPreNormalized declares that every stored vector and every query vector
// is already L2-normalized. Scoring then uses the bare dot product instead
// of full cosine similarity.
//
// This is an explicit opt-in: with unnormalized input it produces wrong
// scores. The default is full cosine similarity.
func WithPreNormalized(pre bool) Option {
	return func(o *options) {
		o.preNormalized = pre
	}
}

// SearchOptions controls a single search invocation.
type SearchOptions struct {
	// Limit is the maximum number of results, applied after filtering,
	// scoring and sorting.
	Limit int

	// MinScore strictly excludes candidates scoring below it.
	MinScore float32

	// Filter is an exact-match, AND-combined metadata predicate.
	// Nil matches every candidate.
	Filter metadata.Filter
}

// SearchOption configures a single search invocation.
type SearchOption func(*SearchOptions)

func applySearchOptions(optFns []SearchOption) SearchOptions {
	opts := SearchOptions{
		Limit: DefaultSearchLimit,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	return opts
}

// WithLimit sets the maximum number of results.
func WithLimit(limit int) SearchOption {
	return func(o *SearchOptions) {
		o.Limit = limit
	}
}

// WithMinScore sets the minimum similarity score. Candidates scoring
// strictly below it are excluded.
func WithMinScore(min float32) SearchOption {
	return func(o *SearchOptions) {
		o.MinScore = min
	}
}

// WithFilter sets the exact-match metadata predicate.
func WithFilter(f metadata.Filter) SearchOption {
	return func(o *SearchOptions) {
		o.Filter = f
	}
}
