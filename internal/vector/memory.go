package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/documind/internal/models"
)

// MemoryIndex is an in-memory vector index using exhaustive cosine similarity search.
// Suitable for small and medium corpora; every query scans all records (O(n*D)).
type MemoryIndex struct {
	dimensions int
	records    []models.VectorRecord
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index. A dimensions value of 0 leaves the
// dimensionality unset until the first record is inserted; a positive value pins it.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("dimensions must not be negative")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		records:    make([]models.VectorRecord, 0),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Insert appends copies of records in input order. Every embedding must have the
// established dimensionality (for an empty index, that of the first record in the batch).
// On a mismatch nothing is appended.
func (m *MemoryIndex) Insert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dimensions
	if dim == 0 {
		dim = len(records[0].Embedding)
	}
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("record %d: %w", i, ErrEmptyEmbedding)
		}
		if len(r.Embedding) != dim {
			return &DimensionMismatchError{Expected: dim, Got: len(r.Embedding), Position: i}
		}
	}

	for _, r := range records {
		m.records = append(m.records, r.Clone())
	}
	m.dimensions = dim
	return nil
}

// Search returns the topK records most similar to query, by descending cosine similarity.
// Equal scores keep insertion order. An empty index yields an empty result, but a
// query whose length disagrees with a pinned dimensionality is still rejected.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dimensions > 0 && len(query) != m.dimensions {
		return nil, &DimensionMismatchError{Expected: m.dimensions, Got: len(query), Position: -1}
	}
	if len(m.records) == 0 {
		return []models.SearchResult{}, nil
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(m.records))
	for i := range m.records {
		scores[i] = scored{pos: i, score: CosineSimilarity(query, m.records[i].Embedding)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]models.SearchResult, topK)
	for i := 0; i < topK; i++ {
		results[i] = models.SearchResult{
			Record: m.records[scores[i].pos].Clone(),
			Score:  scores[i].score,
		}
	}
	return results, nil
}

// Size returns the number of records in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Dimensions returns the established dimensionality (0 until the first insert when unpinned).
func (m *MemoryIndex) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

// Close is a no-op for MemoryIndex; the records are released with the index.
func (m *MemoryIndex) Close() error {
	return nil
}
