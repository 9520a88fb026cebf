// Package vector provides the positional embedding store and exact
// inner-product similarity search over it.
package vector

import "context"

// Index stores embedding vectors at dense append-order positions and answers
// top-k similarity queries over them. Implementations assume unit-normalized
// vectors, so inner product equals cosine similarity.
type Index interface {
	// Append copies vec into the store and returns its assigned position.
	Append(ctx context.Context, vec []float32) (int, error)
	// Build replaces the stored vectors with vecs, positions following slice order.
	Build(ctx context.Context, vecs [][]float32) error
	// Vector returns a copy of the vector stored at position.
	Vector(position int) ([]float32, error)
	// Search returns the top k positions by inner product, highest first.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	// SearchBatch answers one query per element; results align by index.
	SearchBatch(ctx context.Context, queries [][]float32, k int) ([][]Result, error)
	Count() int
	Dimension() int
	Close() error
}

// Result is a single index hit.
type Result struct {
	Position int     `json:"position"`
	Score    float32 `json:"score"`
}
