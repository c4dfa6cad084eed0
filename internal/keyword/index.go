// Package keyword provides keyword lookup over the document catalog.
package keyword

import (
	"context"

	"github.com/hyperjump/documind/internal/models"
)

// Index finds catalogued documents by words in their file name or text.
// It answers "which documents mention X"; chunk retrieval is the vector index's job.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
