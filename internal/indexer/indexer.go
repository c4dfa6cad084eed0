// Package indexer chunks, embeds and indexes documents into the catalog, keyword and vector indices.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperjump/documind/internal/embedding"
	"github.com/hyperjump/documind/internal/extract"
	"github.com/hyperjump/documind/internal/fileid"
	"github.com/hyperjump/documind/internal/keyword"
	"github.com/hyperjump/documind/internal/models"
	"github.com/hyperjump/documind/internal/storage"
	"github.com/hyperjump/documind/internal/vector"
	"go.uber.org/zap"
)

var (
	// ErrNoChunks is returned when a document yields no text to index.
	ErrNoChunks = errors.New("could not generate chunks from document")
	// ErrUnsupportedType is returned for uploads and files without a parser.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// rebuildPageSize is the number of catalog entries loaded per page during Rebuild.
const rebuildPageSize = 100

// Indexer ingests documents: it records them in storage and the keyword catalog and
// inserts one vector record per chunk into the vector index.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.Index
	chunker      *Chunker
	extractor    *extract.Extractor
	logger       *zap.Logger // optional; when set, logs debug events

	// live holds the IDs of documents whose vectors are in vectorIndex in this process.
	live   map[string]bool
	liveMu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, document skipped, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, files and uploads are read as plain text.
func NewIndexer(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.Index,
	chunker *Chunker,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:      storage,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		chunker:      chunker,
		extractor:    extractor,
		logger:       zap.NewNop(),
		live:         make(map[string]bool),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Chunker returns the chunker used for ingestion.
func (idx *Indexer) Chunker() *Chunker {
	return idx.chunker
}

// pendingChunk is a chunk waiting for its embedding.
type pendingChunk struct {
	text string
	page *int
}

// IndexDocument normalizes, chunks and embeds input, records it in the catalog and inserts
// its vectors as one batch. If embedding or insertion fails the catalog and keyword entries
// are put back the way they were: removed for a new ID, restored for a re-ingested one.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	if input.ID == "" {
		input.ID = fileid.NewDocID()
	}
	doc := newDocument(input)
	chunks := idx.chunkDocument(doc)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	doc.ChunkCount = len(chunks)

	prior, err := idx.storage.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if err := idx.keywordIndex.Index(ctx, doc); err != nil {
		idx.rollback(ctx, doc.ID, prior)
		return nil, fmt.Errorf("failed to index keywords: %w", err)
	}
	if err := idx.insertVectors(ctx, doc, chunks); err != nil {
		idx.rollback(ctx, doc.ID, prior)
		return nil, err
	}
	idx.logger.Debug("indexer document indexed",
		zap.String("id", doc.ID),
		zap.String("source", doc.Source),
		zap.Bool("replaced", prior != nil),
		zap.Int("chunks", len(chunks)))
	return doc, nil
}

// newDocument builds the catalog entry for input. A single page number on raw text
// is kept as a one-page document so that re-chunking reproduces it.
func newDocument(input *models.DocumentInput) *models.Document {
	doc := &models.Document{
		ID:       input.ID,
		FileName: filepath.Base(input.Source),
		FileType: strings.ToLower(input.FileType),
		Source:   input.Source,
		Metadata: input.Metadata,
	}
	if input.Source == "" {
		doc.FileName = ""
	}
	switch {
	case len(input.Pages) > 0:
		doc.Pages = make([]models.Page, len(input.Pages))
		texts := make([]string, 0, len(input.Pages))
		for i, p := range input.Pages {
			doc.Pages[i] = models.Page{Number: p.Number, Text: Preprocess(p.Text)}
			if doc.Pages[i].Text != "" {
				texts = append(texts, doc.Pages[i].Text)
			}
		}
		doc.Text = strings.Join(texts, "\n")
	case input.Page != nil:
		doc.Text = Preprocess(input.Text)
		doc.Pages = []models.Page{{Number: *input.Page, Text: doc.Text}}
	default:
		doc.Text = Preprocess(input.Text)
	}
	return doc
}

// chunkDocument splits each page separately, or the whole text when there are no pages.
func (idx *Indexer) chunkDocument(doc *models.Document) []pendingChunk {
	var out []pendingChunk
	if len(doc.Pages) == 0 {
		for _, ch := range idx.chunker.Split(doc.Text) {
			out = append(out, pendingChunk{text: ch.Text})
		}
		return out
	}
	for _, p := range doc.Pages {
		page := p.Number
		for _, ch := range idx.chunker.Split(p.Text) {
			out = append(out, pendingChunk{text: ch.Text, page: &page})
		}
	}
	return out
}

// insertVectors embeds chunks (outside any index lock) and inserts them as one batch.
func (idx *Indexer) insertVectors(ctx context.Context, doc *models.Document, chunks []pendingChunk) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.text
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("failed to generate embeddings: got %d for %d chunks", len(embeddings), len(chunks))
	}
	records := make([]models.VectorRecord, len(chunks))
	for i, ch := range chunks {
		meta := map[string]string{
			models.MetaSource:     doc.Source,
			models.MetaDocumentID: doc.ID,
			models.MetaChunkID:    doc.ID + "#" + strconv.Itoa(i),
		}
		if ch.page != nil {
			meta[models.MetaPage] = strconv.Itoa(*ch.page)
		}
		records[i] = models.VectorRecord{Text: ch.text, Embedding: embeddings[i], Metadata: meta}
	}
	if err := idx.vectorIndex.Insert(ctx, records); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	idx.liveMu.Lock()
	idx.live[doc.ID] = true
	idx.liveMu.Unlock()
	return nil
}

// rollback undoes the catalog and keyword writes of a failed ingestion. A prior
// version is written back, since its vectors are still live in the index.
func (idx *Indexer) rollback(ctx context.Context, id string, prior *models.Document) {
	if prior != nil {
		if err := idx.storage.CreateDocument(ctx, prior); err != nil {
			idx.logger.Warn("indexer rollback: catalog restore failed", zap.String("id", id), zap.Error(err))
		}
		if err := idx.keywordIndex.Index(ctx, prior); err != nil {
			idx.logger.Warn("indexer rollback: keyword restore failed", zap.String("id", id), zap.Error(err))
		}
		return
	}
	if err := idx.keywordIndex.Delete(ctx, id); err != nil {
		idx.logger.Warn("indexer rollback: keyword delete failed", zap.String("id", id), zap.Error(err))
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		idx.logger.Warn("indexer rollback: catalog delete failed", zap.String("id", id), zap.Error(err))
	}
}

// IndexUpload parses uploaded bytes by the extension of filename and ingests them
// under a fresh document ID.
func (idx *Indexer) IndexUpload(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, errors.New("invalid file name")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if idx.extractor != nil && !extract.IsSupported(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	parsed, err := idx.parse(content, ext)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return idx.IndexDocument(ctx, &models.DocumentInput{
		ID:       fileid.NewDocID(),
		Source:   name,
		FileType: ext,
		Text:     parsed.Text,
		Pages:    parsed.Pages,
	})
}

// IndexFile reads a file from path and indexes it. The document ID is derived from the
// absolute path so re-indexing replaces the same catalog entry. If allowedExts is non-empty,
// the file's extension must be in the list (case-insensitive).
// Skips files already indexed in this process with the same mtime and size.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) error {
	idx.logger.Debug("indexer indexing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := fileid.FileDocID(absPath)
	stamp := fileid.StampOf(absPath, info)
	if idx.unchanged(ctx, docID, stamp) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	parsed, err := idx.parse(content, ext)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	if idx.isLive(docID) {
		// Earlier vectors of this file stay searchable until the next restart rebuilds from the catalog.
		idx.logger.Debug("indexer re-ingesting changed file", zap.String("path", absPath))
	}
	_, err = idx.IndexDocument(ctx, &models.DocumentInput{
		ID:       docID,
		Source:   filepath.Base(absPath),
		FileType: ext,
		Text:     parsed.Text,
		Pages:    parsed.Pages,
		Metadata: stamp.Metadata(),
	})
	if err != nil {
		return err
	}
	idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.String("doc_id", docID))
	return nil
}

// unchanged reports whether docID is already live and catalogued for this exact file version.
func (idx *Indexer) unchanged(ctx context.Context, docID string, stamp fileid.Stamp) bool {
	if !idx.isLive(docID) {
		return false
	}
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil {
		return false
	}
	return stamp.Matches(doc.Metadata)
}

func (idx *Indexer) isLive(id string) bool {
	idx.liveMu.Lock()
	defer idx.liveMu.Unlock()
	return idx.live[id]
}

func (idx *Indexer) parse(content []byte, ext string) (*extract.ParsedDocument, error) {
	if idx.extractor != nil {
		return idx.extractor.ParseBytes(content, ext)
	}
	return &extract.ParsedDocument{FileType: ext, Text: strings.TrimSpace(string(content))}, nil
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (if non-empty; otherwise all files). Returns the number of files
// visited and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			if errors.Is(indexErr, ErrNoChunks) {
				idx.logger.Debug("indexer skipping empty file", zap.String("path", path))
				return nil
			}
			return fmt.Errorf("%s: %w", path, indexErr)
		}
		n++
		return nil
	})
	return n, err
}

// Rebuild replays every catalogued document into the vector index and keyword catalog.
// Documents are re-chunked with the current chunker. It returns the number of documents
// indexed; documents that now yield no chunks are skipped.
func (idx *Indexer) Rebuild(ctx context.Context) (int, error) {
	n := 0
	var recount []*models.Document
	for offset := 0; ; offset += rebuildPageSize {
		docs, err := idx.storage.ListDocuments(ctx, offset, rebuildPageSize)
		if err != nil {
			return n, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			if idx.isLive(doc.ID) {
				continue
			}
			chunks := idx.chunkDocument(doc)
			if len(chunks) == 0 {
				idx.logger.Warn("indexer rebuild: document has no chunks", zap.String("id", doc.ID))
				continue
			}
			if err := idx.keywordIndex.Index(ctx, doc); err != nil {
				return n, fmt.Errorf("rebuild %s: failed to index keywords: %w", doc.ID, err)
			}
			if err := idx.insertVectors(ctx, doc, chunks); err != nil {
				return n, fmt.Errorf("rebuild %s: %w", doc.ID, err)
			}
			if doc.ChunkCount != len(chunks) {
				doc.ChunkCount = len(chunks)
				recount = append(recount, doc)
			}
			n++
		}
		if len(docs) < rebuildPageSize {
			break
		}
	}
	// Rewritten after paging so replaced rows cannot shift the listing.
	for _, doc := range recount {
		if err := idx.storage.CreateDocument(ctx, doc); err != nil {
			return n, fmt.Errorf("rebuild %s: failed to update document: %w", doc.ID, err)
		}
	}
	idx.logger.Debug("indexer rebuild complete", zap.Int("documents", n), zap.Int("vectors", idx.vectorIndex.Size()))
	return n, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
