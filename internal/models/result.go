package models

// SearchResult is a single vector search hit. Record is a copy of the stored record;
// Score is the cosine similarity in [-1, 1].
type SearchResult struct {
	Record VectorRecord `json:"record"`
	Score  float64      `json:"score"`
}

// ContextEntry is what the prompt layer sees for each retrieved chunk.
// Page is nil when the chunk has no page number.
type ContextEntry struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Page       *int    `json:"page,omitempty"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id,omitempty"`
	ChunkID    string  `json:"chunk_id,omitempty"`
}

// NewContextEntry converts a search hit into a context entry.
func NewContextEntry(r SearchResult) ContextEntry {
	entry := ContextEntry{
		Text:       r.Record.Text,
		Source:     r.Record.Source(),
		Score:      r.Score,
		DocumentID: r.Record.Metadata[MetaDocumentID],
		ChunkID:    r.Record.Metadata[MetaChunkID],
	}
	if p, ok := r.Record.Page(); ok {
		entry.Page = &p
	}
	return entry
}

// QueryResponse is the ranked retrieval result for a query. Results keep the index order.
type QueryResponse struct {
	Query     string         `json:"query"`
	TopK      int            `json:"top_k"`
	Results   []ContextEntry `json:"results"`
	QueryTime int64          `json:"query_time_ms"`
}

// AgentRequest is the body of the agent endpoints.
type AgentRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// AgentResponse is the generated answer together with the context it was grounded on.
type AgentResponse struct {
	Agent    string         `json:"agent"`
	Response string         `json:"response"`
	Sources  []ContextEntry `json:"sources"`
}
