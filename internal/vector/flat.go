package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/pkg/utils"
)

// Flat is the exact index: vectors live in one flattened row-major slice and
// every search scans all of them. Positions are assigned in append order and
// never change. Flat does not lock; the engine serializes writers against
// readers around it.
type Flat struct {
	dimension int
	data      []float32
	count     int
}

// NewFlat creates a flat index with the given fixed dimension.
func NewFlat(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", models.ErrInvalidArgument, dimension)
	}
	return &Flat{dimension: dimension}, nil
}

// Type returns the index type identifier.
func (f *Flat) Type() string {
	return string(IndexTypeFlat)
}

// Append copies vec into the store and returns its position. The store is
// unchanged when the dimension check fails.
func (f *Flat) Append(ctx context.Context, vec []float32) (int, error) {
	if len(vec) != f.dimension {
		return 0, fmt.Errorf("%w: got %d values, index expects %d", models.ErrDimensionMismatch, len(vec), f.dimension)
	}
	f.data = append(f.data, vec...)
	f.count++
	return f.count - 1, nil
}

// Build replaces the stored vectors with vecs in order. Every dimension is
// checked before any mutation, so a failed Build leaves the index unchanged.
func (f *Flat) Build(ctx context.Context, vecs [][]float32) error {
	for i, v := range vecs {
		if len(v) != f.dimension {
			return fmt.Errorf("%w: vector %d has %d values, index expects %d", models.ErrDimensionMismatch, i, len(v), f.dimension)
		}
	}
	data := make([]float32, 0, len(vecs)*f.dimension)
	for _, v := range vecs {
		data = append(data, v...)
	}
	f.data = data
	f.count = len(vecs)
	return nil
}

// Vector returns a copy of the vector stored at position.
func (f *Flat) Vector(position int) ([]float32, error) {
	if position < 0 || position >= f.count {
		return nil, fmt.Errorf("%w: position %d, count %d", models.ErrOutOfRange, position, f.count)
	}
	out := make([]float32, f.dimension)
	copy(out, f.data[position*f.dimension:])
	return out, nil
}

// Search returns the top k positions by inner product, highest first. Equal
// scores order by ascending position. k larger than the stored count returns
// every vector; an empty index returns no results.
func (f *Flat) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", models.ErrDimensionMismatch, len(query), f.dimension)
	}
	if k <= 0 || f.count == 0 {
		return nil, nil
	}
	scores := make([]Result, f.count)
	for i := 0; i < f.count; i++ {
		row := f.data[i*f.dimension : (i+1)*f.dimension]
		scores[i] = Result{Position: i, Score: float32(utils.Dot(query, row))}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Position < scores[j].Position
	})
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]Result, k)
	copy(out, scores[:k])
	return out, nil
}

// SearchBatch answers one query per element. Results align with queries by
// index and match what sequential Search calls would return.
func (f *Flat) SearchBatch(ctx context.Context, queries [][]float32, k int) ([][]Result, error) {
	out := make([][]Result, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q []float32) {
			defer wg.Done()
			out[i], errs[i] = f.Search(ctx, q, k)
		}(i, q)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	return f.count
}

// Dimension returns the fixed vector dimension.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Close is a no-op for Flat.
func (f *Flat) Close() error {
	return nil
}
