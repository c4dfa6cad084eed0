package search

import "github.com/hyperjump/documind/internal/models"

// ProcessQuery fills an unset TopK with defaultTopK, then validates the query.
func ProcessQuery(query *models.QueryRequest, defaultTopK int) error {
	if query.TopK <= 0 && defaultTopK > 0 {
		query.TopK = defaultTopK
	}
	return query.Validate()
}
