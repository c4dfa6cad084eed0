package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch matches any *DimensionMismatchError via errors.Is.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidTopK is returned when Search is asked for fewer than one result.
	ErrInvalidTopK = errors.New("top_k must be positive")
	// ErrEmptyEmbedding is returned when a record has no embedding values.
	ErrEmptyEmbedding = errors.New("embedding is empty")
)

// DimensionMismatchError reports a vector whose length disagrees with the index dimensionality.
// Position is the offending record's position in the insert batch, or -1 for a query vector.
type DimensionMismatchError struct {
	Expected int
	Got      int
	Position int
}

func (e *DimensionMismatchError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("query dimension mismatch: got %d, expected %d", e.Got, e.Expected)
	}
	return fmt.Sprintf("record %d dimension mismatch: got %d, expected %d", e.Position, e.Got, e.Expected)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
