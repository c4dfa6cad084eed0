package models

import (
	"errors"
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		query    *QueryRequest
		wantErr  bool
		wantTopK int
	}{
		{"empty query", &QueryRequest{Query: ""}, true, 0},
		{"blank query", &QueryRequest{Query: "   \n"}, true, 0},
		{"sets default top_k", &QueryRequest{Query: "x"}, false, DefaultTopK},
		{"negative top_k uses default", &QueryRequest{Query: "x", TopK: -3}, false, DefaultTopK},
		{"keeps explicit top_k", &QueryRequest{Query: "x", TopK: 7}, false, 7},
		{"caps top_k", &QueryRequest{Query: "x", TopK: 500}, false, MaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyQuery) {
					t.Errorf("error = %v, want ErrEmptyQuery", err)
				}
				return
			}
			if tt.query.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", tt.query.TopK, tt.wantTopK)
			}
		})
	}
}

func TestQueryRequest_ValidateTrims(t *testing.T) {
	q := &QueryRequest{Query: "  what is the budget?  "}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Query != "what is the budget?" {
		t.Errorf("Query = %q", q.Query)
	}
}

func TestVectorRecord_SourceAndPage(t *testing.T) {
	r := VectorRecord{Metadata: map[string]string{MetaSource: "report.pdf", MetaPage: "3"}}
	if r.Source() != "report.pdf" {
		t.Errorf("Source() = %q", r.Source())
	}
	p, ok := r.Page()
	if !ok || p != 3 {
		t.Errorf("Page() = %d, %v", p, ok)
	}

	empty := VectorRecord{}
	if empty.Source() != "document" {
		t.Errorf("Source() on empty metadata = %q", empty.Source())
	}
	if _, ok := empty.Page(); ok {
		t.Error("Page() on empty metadata should be absent")
	}

	bad := VectorRecord{Metadata: map[string]string{MetaPage: "three"}}
	if _, ok := bad.Page(); ok {
		t.Error("non-numeric page should be absent")
	}
}

func TestVectorRecord_CloneIsDeep(t *testing.T) {
	r := VectorRecord{
		Text:      "hello",
		Embedding: []float32{1, 2},
		Metadata:  map[string]string{MetaSource: "a"},
	}
	c := r.Clone()
	c.Embedding[0] = 9
	c.Metadata[MetaSource] = "b"
	if r.Embedding[0] != 1 {
		t.Error("clone shares embedding backing array")
	}
	if r.Metadata[MetaSource] != "a" {
		t.Error("clone shares metadata map")
	}
}

func TestNewContextEntry(t *testing.T) {
	withPage := NewContextEntry(SearchResult{
		Record: VectorRecord{Text: "t", Metadata: map[string]string{
			MetaSource: "a.pdf", MetaPage: "2", MetaDocumentID: "doc", MetaChunkID: "doc#0",
		}},
		Score: 0.5,
	})
	if withPage.Page == nil || *withPage.Page != 2 {
		t.Errorf("Page = %v", withPage.Page)
	}
	if withPage.Source != "a.pdf" || withPage.DocumentID != "doc" || withPage.ChunkID != "doc#0" || withPage.Score != 0.5 {
		t.Errorf("unexpected entry %+v", withPage)
	}

	noPage := NewContextEntry(SearchResult{Record: VectorRecord{Text: "t", Metadata: map[string]string{MetaSource: "b.txt"}}})
	if noPage.Page != nil {
		t.Errorf("Page = %v, want nil", *noPage.Page)
	}
}
