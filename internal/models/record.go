package models

import "strconv"

// Metadata keys attached to every VectorRecord by the indexer.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaDocumentID = "document_id"
	MetaChunkID    = "chunk_id"
)

// VectorRecord is a chunk of text together with its embedding and source metadata.
type VectorRecord struct {
	Text      string            `json:"text"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata"`
}

// Source returns the "source" metadata value, or "document" when it is missing.
func (r *VectorRecord) Source() string {
	if s := r.Metadata[MetaSource]; s != "" {
		return s
	}
	return "document"
}

// Page returns the page number from metadata, if present and numeric.
func (r *VectorRecord) Page() (int, bool) {
	v, ok := r.Metadata[MetaPage]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Clone returns a deep copy so that callers never share backing arrays with the index.
func (r VectorRecord) Clone() VectorRecord {
	out := VectorRecord{Text: r.Text}
	if r.Embedding != nil {
		out.Embedding = make([]float32, len(r.Embedding))
		copy(out.Embedding, r.Embedding)
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
