// Package model defines the core data types shared by every vector store
// backend.
//
// # Data Types
//
//   - Embedding: a fixed-length vector with document reference, chunk id,
//     original content and free-form metadata
//   - ScoredResult: an embedding paired with a normalized similarity score
//
// Embeddings are owned exclusively by the store that holds them; stores
// return clones so cached state cannot be mutated from outside.
package model
