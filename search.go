package vecstore

import (
	"sort"

	"github.com/hupe1980/vecstore/distance"
	"github.com/hupe1980/vecstore/model"
)

// ScoreFunc scores a candidate vector against a query vector.
type ScoreFunc func(query, v []float32) float32

// scoreFuncFor returns the configured similarity kernel: full cosine by
// default, bare dot product for pre-normalized stores.
func scoreFuncFor(opts options) ScoreFunc {
	if opts.preNormalized {
		return distance.Dot
	}
	return distance.Cosine
}

// Rank executes the ranking algorithm shared by every backend against
// candidates given in insertion order:
//
//  1. drop candidates whose metadata fails the exact-match filter
//  2. score the remainder with the given kernel
//  3. strictly exclude scores below MinScore
//  4. sort descending by score, stable, so ties keep insertion order
//  5. truncate to Limit
//
// Candidates are returned as-is, not cloned; callers that expose results
// outside their own cache clone first.
func Rank(query []float32, candidates []*model.Embedding, score ScoreFunc, opts SearchOptions) []model.ScoredResult {
	if score == nil {
		score = distance.Cosine
	}

	results := make([]model.ScoredResult, 0, len(candidates))
	for _, cand := range candidates {
		if !opts.Filter.Matches(cand.Metadata) {
			continue
		}
		s := score(query, cand.Vector)
		if s < opts.MinScore {
			continue
		}
		results = append(results, model.ScoredResult{Embedding: cand, Score: s})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results
}
