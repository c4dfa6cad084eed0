package models

import (
	"errors"
	"strings"
)

// DefaultTopK is used when a query does not ask for a specific number of results.
const DefaultTopK = 5

// MaxTopK caps the number of results a single query may request.
const MaxTopK = 100

// ErrEmptyQuery is returned when a query has no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// QueryRequest is a retrieval request.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate trims the query, rejects empty queries and normalizes TopK into [1, MaxTopK].
func (q *QueryRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}
