// Package indexer provides document chunking and indexing.
package indexer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/documind/internal/models"
)

// ErrConfiguration matches any *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("invalid chunker configuration")

// ConfigurationError reports an unusable chunk size / overlap pair.
type ConfigurationError struct {
	ChunkSize    int
	ChunkOverlap int
	Reason       string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("chunker: %s (chunk_size=%d, chunk_overlap=%d)", e.Reason, e.ChunkSize, e.ChunkOverlap)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// sentenceEnd matches terminal punctuation plus the whitespace after it.
var sentenceEnd = regexp.MustCompile(`[.!?][\s\p{Z}]+`)

// Chunker splits text into overlapping, sentence-aligned chunks.
// Sizes are measured in characters (runes).
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
// The overlap must be smaller than the size.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	switch {
	case chunkSize <= 0:
		return nil, &ConfigurationError{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Reason: "chunk_size must be positive"}
	case chunkOverlap < 0:
		return nil, &ConfigurationError{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Reason: "chunk_overlap must not be negative"}
	case chunkOverlap >= chunkSize:
		return nil, &ConfigurationError{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Reason: "chunk_overlap must be smaller than chunk_size"}
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// ChunkSize returns the configured target chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the configured overlap.
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split divides text into chunks. Sentences are never cut: one longer than the
// chunk size is kept whole, so a chunk may exceed the size. Each chunk after a
// split point starts with the last chunkOverlap characters of the previous chunk.
func (c *Chunker) Split(text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		chunks []models.Chunk
		buf    strings.Builder
		bufLen int
	)
	closeChunk := func() {
		chunkText := strings.TrimSpace(buf.String())
		chunks = append(chunks, newChunk(len(chunks), chunkText))
		seed := suffix(chunkText, c.chunkOverlap)
		buf.Reset()
		buf.WriteString(seed)
		bufLen = runeLen(seed)
	}

	for _, sentence := range SplitSentences(text) {
		sentLen := runeLen(sentence)
		sep := 0
		if bufLen > 0 {
			sep = 1
		}
		if bufLen+sep+sentLen > c.chunkSize && strings.TrimSpace(buf.String()) != "" {
			closeChunk()
			sep = 0
			if bufLen > 0 {
				sep = 1
			}
		}
		if sep == 1 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
		bufLen += sep + sentLen
	}

	if last := strings.TrimSpace(buf.String()); last != "" {
		chunks = append(chunks, newChunk(len(chunks), last))
	}
	return chunks
}

// SplitSentences breaks text after '.', '!' or '?' followed by whitespace.
// Segments are trimmed and empty segments dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// keep the punctuation, drop the whitespace
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func newChunk(id int, text string) models.Chunk {
	return models.Chunk{ID: id, Text: text, Length: runeLen(text)}
}

// suffix returns the last n runes of s.
func suffix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}

func runeLen(s string) int {
	return len([]rune(s))
}
