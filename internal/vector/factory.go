package vector

import (
	"fmt"

	"github.com/minatori/shotseek/internal/models"
)

// IndexType selects the similarity index implementation.
type IndexType string

const (
	// IndexTypeFlat scans every stored vector on each query. Exact results;
	// the right choice up to a few hundred thousand vectors.
	IndexTypeFlat IndexType = "flat"
)

// New creates an index of the specified type with the given dimension.
// An empty type selects "flat".
func New(indexType string, dimension int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlat(dimension)
	default:
		return nil, fmt.Errorf("%w: unknown index type %q (supported: flat)", models.ErrInvalidArgument, indexType)
	}
}
