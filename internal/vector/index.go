// Package vector provides vector index and similarity search.
package vector

import (
	"context"

	"github.com/hyperjump/documind/internal/models"
)

// VectorIndex stores vector records and answers exact top-k cosine similarity queries.
// Implementations must be safe for concurrent use: searches may run in parallel with
// each other but not with an insert.
type VectorIndex interface {
	// Insert appends records in order. It is all-or-nothing: on any error no record is added.
	Insert(ctx context.Context, records []models.VectorRecord) error
	// Search returns up to topK records ordered by descending similarity.
	Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error)
	// Size returns the number of stored records.
	Size() int
	// Dimensions returns the established dimensionality, or 0 while it is not yet known.
	Dimensions() int
	Type() string
	Close() error
}
