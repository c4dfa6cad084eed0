package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/documind/internal/models"
)

func TestSQLiteStorage_CRUD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	doc := &models.Document{
		ID:         "doc1",
		FileName:   "report.pdf",
		FileType:   "pdf",
		Source:     "/inbox/report.pdf",
		Text:       "Page one. Page two.",
		Pages:      []models.Page{{Number: 1, Text: "Page one."}, {Number: 2, Text: "Page two."}},
		Metadata:   map[string]string{"k": "v"},
		ChunkCount: 2,
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.FileName != "report.pdf" || got.Text != doc.Text || got.ChunkCount != 2 {
		t.Errorf("got %+v", got)
	}
	if got.NumPages() != 2 || got.Pages[1].Text != "Page two." {
		t.Errorf("pages not round-tripped: %+v", got.Pages)
	}
	if got.Metadata["k"] != "v" {
		t.Errorf("metadata: %v", got.Metadata)
	}

	list, err := store.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 doc, got %d", len(list))
	}

	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetDocument(ctx, "doc1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_ReplaceSameID(t *testing.T) {
	store, err := NewSQLiteStorage(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.CreateDocument(ctx, &models.Document{ID: "a", FileName: "a.txt", Text: "old"})
	if err := store.CreateDocument(ctx, &models.Document{ID: "a", FileName: "a.txt", Text: "new"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetDocument(ctx, "a")
	if got.Text != "new" {
		t.Errorf("Text=%q, want new", got.Text)
	}
	if n, _ := store.CountDocuments(ctx); n != 1 {
		t.Errorf("CountDocuments=%d, want 1", n)
	}
}

func TestSQLiteStorage_ListOrderAndPaging(t *testing.T) {
	store, err := NewSQLiteStorage("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := store.CreateDocument(ctx, &models.Document{ID: id, FileName: id, Text: id}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := store.ListDocuments(ctx, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != "second" || page[1].ID != "third" {
		t.Errorf("unexpected page: %d docs", len(page))
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "count.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	n, err := store.CountDocuments(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountDocuments: %v, %d", err, n)
	}
	c, err := store.CountChunks(ctx)
	if err != nil || c != 0 {
		t.Errorf("CountChunks: %v, %d", err, c)
	}
	_ = store.CreateDocument(ctx, &models.Document{ID: "x", FileName: "x", Text: "c", ChunkCount: 3})
	_ = store.CreateDocument(ctx, &models.Document{ID: "y", FileName: "y", Text: "c", ChunkCount: 4})
	n, _ = store.CountDocuments(ctx)
	if n != 2 {
		t.Errorf("expected 2 documents, got %d", n)
	}
	c, _ = store.CountChunks(ctx)
	if c != 7 {
		t.Errorf("expected 7 chunks, got %d", c)
	}
}
