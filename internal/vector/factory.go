package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory exhaustive search. Good for small to medium corpora.
	IndexTypeMemory IndexType = "memory"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default). dimensions may be 0 to adopt the first record's length.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory)", indexType)
	}
}
