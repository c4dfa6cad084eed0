// Package storage defines the document catalog persisted next to the in-memory vector index.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/documind/internal/models"
)

// ErrNotFound is returned (wrapped) when a document ID is not in the catalog.
var ErrNotFound = errors.New("document not found")

// Storage catalogs ingested documents. The catalog survives restarts; the vector
// index does not, and is rebuilt from it.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
