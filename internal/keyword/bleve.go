package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/documind/internal/models"
)

// defaultFuzziness is the edit distance used when an exact lookup finds nothing.
const defaultFuzziness = 1

// catalogEntry is the shape stored in Bleve for each document.
type catalogEntry struct {
	Title    string `json:"title"`
	Source   string `json:"source"`
	FileType string `json:"file_type"`
	Content  string `json:"content"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so lookups match exact words.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("source", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("file_type", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates a Bleve index. An empty path keeps the index in memory,
// which suits a catalog that is rebuilt on every start. Otherwise an existing index
// at path is reopened, or a new one created (parent directories included).
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces a document, keyed by its ID.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	entry := catalogEntry{
		Title:    normalizeTitle(doc.FileName),
		Source:   doc.Source,
		FileType: doc.FileType,
		Content:  doc.Text,
	}
	return b.index.Index(doc.ID, entry)
}

// titleSeparators split filename words that the standard analyzer would keep together.
var titleSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// normalizeTitle drops the extension and splits on separators so that
// "q3_sales-report.pdf" is found by "sales report" and "budget.txt" by "budget".
func normalizeTitle(title string) string {
	if ext := filepath.Ext(title); ext != "" && len(ext) < len(title) {
		title = strings.TrimSuffix(title, ext)
	}
	return titleSeparators.Replace(title)
}

// Search runs a match query over title and content and returns up to limit hits by score.
// When nothing matches exactly, it retries with a fuzzy query to tolerate typos.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []*Result{}, nil
	}
	results, err := b.run(ctx, bleve.NewMatchQuery(query), limit)
	if err != nil || len(results) > 0 {
		return results, err
	}
	return b.run(ctx, fuzzyQuery(query, defaultFuzziness), limit)
}

func (b *BleveIndex) run(ctx context.Context, q blevequery.Query, limit int) ([]*Result, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// fuzzyQuery ORs one FuzzyQuery per lowercase term.
func fuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
