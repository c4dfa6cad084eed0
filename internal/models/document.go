// Package models defines core data structures for documents, chunks, vector records, and query results.
package models

import "time"

// Page is the text of one page (or sheet, or slide) of a parsed document.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Document is a catalogued source document.
type Document struct {
	ID         string            `json:"id" db:"id"`
	FileName   string            `json:"file_name" db:"file_name"`
	FileType   string            `json:"file_type" db:"file_type"`
	Source     string            `json:"source" db:"source"`
	Text       string            `json:"text" db:"text"`
	Pages      []Page            `json:"pages,omitempty" db:"pages"`
	Metadata   map[string]string `json:"metadata,omitempty" db:"metadata"`
	ChunkCount int               `json:"chunk_count" db:"chunk_count"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// NumPages returns the number of pages, or 0 when the document was ingested as raw text.
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// DocumentInput is the input for ingesting a document.
// When Pages is non-empty, each page is chunked separately and the chunks carry the page number;
// otherwise Text is chunked as a whole and Page (if set) is attached to every chunk.
type DocumentInput struct {
	ID       string            `json:"id,omitempty"`
	Source   string            `json:"source"`
	FileType string            `json:"file_type,omitempty"`
	Text     string            `json:"text"`
	Page     *int              `json:"page,omitempty"`
	Pages    []Page            `json:"pages,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
