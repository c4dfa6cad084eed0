// Package search answers retrieval queries against the vector index.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/documind/internal/embedding"
	"github.com/hyperjump/documind/internal/keyword"
	"github.com/hyperjump/documind/internal/models"
	"github.com/hyperjump/documind/internal/ranking"
	"github.com/hyperjump/documind/internal/storage"
	"github.com/hyperjump/documind/internal/vector"
)

// Engine embeds queries and returns the most similar chunks as context entries.
type Engine struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.Index
	defaultTopK  int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDefaultTopK sets the result count used when a query leaves top_k unset.
func WithDefaultTopK(k int) EngineOption {
	return func(e *Engine) { e.defaultTopK = k }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.Index,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage:      storage,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		defaultTopK:  models.DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search validates query, embeds it and returns up to TopK context entries
// in the order the vector index ranked them.
func (e *Engine) Search(ctx context.Context, query *models.QueryRequest) (*models.QueryResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.defaultTopK); err != nil {
		return nil, err
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	hits, err := e.vectorIndex.Search(ctx, queryEmbedding, query.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	response := &models.QueryResponse{
		Query:   query.Query,
		TopK:    query.TopK,
		Results: make([]models.ContextEntry, 0, len(hits)),
	}
	for _, hit := range hits {
		response.Results = append(response.Results, models.NewContextEntry(hit))
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

// FindDocuments looks up catalogued documents by file name and content keywords,
// best match first. Hits missing from the catalog are skipped.
func (e *Engine) FindDocuments(ctx context.Context, q string, limit int) ([]*models.Document, error) {
	if strings.TrimSpace(q) == "" {
		return []*models.Document{}, nil
	}
	hits, err := e.keywordIndex.Search(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	candidates := make([]ranking.Candidate, 0, len(hits))
	for _, h := range hits {
		doc, err := e.storage.GetDocument(ctx, h.ID)
		if err != nil {
			continue
		}
		candidates = append(candidates, ranking.Candidate{Document: doc, KeywordScore: h.Score})
	}
	return ranking.Rank(q, candidates), nil
}
