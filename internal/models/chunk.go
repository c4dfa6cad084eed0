package models

// Chunk is one bounded segment of document text produced by the chunker.
// ID is the zero-based ordinal within a single split call; Length is the
// character (rune) count of Text.
type Chunk struct {
	ID     int    `json:"chunk_id"`
	Text   string `json:"text"`
	Length int    `json:"length"`
}
