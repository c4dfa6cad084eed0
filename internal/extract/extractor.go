// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/documind/internal/models"
)

// ParsedDocument is the normalized text of one file. Pages is empty for formats
// without page structure; otherwise Text is the non-empty page texts joined by newlines.
type ParsedDocument struct {
	FileName string        `json:"file_name"`
	FileType string        `json:"file_type"`
	Text     string        `json:"text"`
	Pages    []models.Page `json:"pages,omitempty"`
}

// NumPages returns the number of pages (0 for flat text formats).
func (d *ParsedDocument) NumPages() int {
	return len(d.Pages)
}

// SupportedExtensions lists the extensions with a dedicated parser.
// Anything else is read as plain text.
var SupportedExtensions = []string{
	".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".ods", ".pptx", ".odp", ".txt", ".md", ".rst",
}

// Extractor extracts normalized text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Parse reads the file at path and returns its text and pages.
func (e *Extractor) Parse(path string) (*ParsedDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := e.ParseBytes(content, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	doc.FileName = filepath.Base(path)
	return doc, nil
}

// ParseBytes parses content based on ext, which should include the leading dot (e.g. ".pdf").
func (e *Extractor) ParseBytes(content []byte, ext string) (*ParsedDocument, error) {
	ext = strings.ToLower(ext)
	doc := &ParsedDocument{FileType: ext}

	var (
		pages []models.Page
		text  string
		err   error
	)
	switch ext {
	case ".pdf":
		pages, err = extractPDF(content)
	case ".xlsx":
		pages, err = extractExcel(content)
	case ".pptx":
		pages, err = extractPPTX(content)
	case ".odp":
		pages, err = extractODP(content)
	case ".ods":
		pages, err = extractODS(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content)
	default:
		// .txt, .md, .rst and unknown extensions
		text, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}

	if pages != nil {
		doc.Pages = pages
		doc.Text = joinPages(pages)
	} else {
		doc.Text = strings.TrimSpace(text)
	}
	return doc, nil
}

func joinPages(pages []models.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsSupported reports whether ext has a dedicated parser.
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
