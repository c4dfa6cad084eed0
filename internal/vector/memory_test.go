package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/hyperjump/documind/internal/models"
)

func record(text string, emb ...float32) models.VectorRecord {
	return models.VectorRecord{
		Text:      text,
		Embedding: emb,
		Metadata:  map[string]string{models.MetaSource: "test.txt"},
	}
}

func TestMemoryIndex_InsertSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	err = idx.Insert(ctx, []models.VectorRecord{
		record("a", 1, 0, 0),
		record("b", 0.9, 0.1, 0),
		record("c", 0, 1, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Record.Text != "a" {
		t.Errorf("top result should be a, got %s", results[0].Record.Text)
	}
	if results[1].Record.Text != "b" {
		t.Errorf("second result should be b, got %s", results[1].Record.Text)
	}
	if math.Abs(results[0].Score-1) > 1e-9 {
		t.Errorf("identical vector score=%f, want 1", results[0].Score)
	}
}

func TestMemoryIndex_TopKOrdering(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	// Similarities to query (1,0): 1, -1, 0.6, 0.8, 0
	_ = idx.Insert(ctx, []models.VectorRecord{
		record("r0", 1, 0),
		record("r1", -1, 0),
		record("r2", 3, 4),
		record("r3", 4, 3),
		record("r4", 0, 1),
	})

	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"r0", "r3", "r2"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, w := range want {
		if results[i].Record.Text != w {
			t.Errorf("results[%d]=%s, want %s", i, results[i].Record.Text, w)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not descending at %d", i)
		}
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	_ = idx.Insert(ctx, []models.VectorRecord{
		record("first", 1, 1),
		record("other", 0, 1),
		record("second", 2, 2),
		record("third", 0.5, 0.5),
	})

	for run := 0; run < 3; run++ {
		results, err := idx.Search(ctx, []float32{1, 1}, 3)
		if err != nil {
			t.Fatal(err)
		}
		for i, w := range []string{"first", "second", "third"} {
			if results[i].Record.Text != w {
				t.Errorf("run %d: results[%d]=%s, want %s", run, i, results[i].Record.Text, w)
			}
		}
	}
}

func TestMemoryIndex_FewerThanTopK(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	_ = idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0), record("b", 0, 1)})

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestMemoryIndex_EmptyIndex(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	results, err := idx.Search(context.Background(), []float32{1, 2, 3}, 5)
	if err != nil {
		t.Fatalf("empty index search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty index", len(results))
	}
}

func TestMemoryIndex_EmptyPinnedIndexChecksDimensions(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	ctx := context.Background()

	_, err := idx.Search(ctx, []float32{1, 2}, 3)
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) || dm.Expected != 4 || dm.Got != 2 || dm.Position != -1 {
		t.Fatalf("err = %v, want query DimensionMismatchError", err)
	}

	results, err := idx.Search(ctx, []float32{1, 2, 3, 4}, 3)
	if err != nil || len(results) != 0 {
		t.Errorf("matching query on empty index: %v, %d results", err, len(results))
	}
}

func TestMemoryIndex_InvalidTopK(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	_ = idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0)})
	for _, k := range []int{0, -1} {
		if _, err := idx.Search(ctx, []float32{1, 0}, k); !errors.Is(err, ErrInvalidTopK) {
			t.Errorf("topK=%d: err=%v, want ErrInvalidTopK", k, err)
		}
	}
}

func TestMemoryIndex_ZeroNorm(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	_ = idx.Insert(ctx, []models.VectorRecord{
		record("neg", -1, 0),
		record("zero", 0, 0),
	})

	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Record.Text != "zero" || results[0].Score != 0 {
		t.Errorf("zero vector should score 0 and rank above -1, got %s=%f", results[0].Record.Text, results[0].Score)
	}

	results, err = idx.Search(ctx, []float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Errorf("zero query: %s scored %f, want 0", r.Record.Text, r.Score)
		}
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()

	t.Run("query", func(t *testing.T) {
		idx, _ := NewMemoryIndex(0)
		_ = idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0, 0)})
		_, err := idx.Search(ctx, []float32{1, 0}, 1)
		var dm *DimensionMismatchError
		if !errors.As(err, &dm) {
			t.Fatalf("err=%v, want DimensionMismatchError", err)
		}
		if dm.Expected != 3 || dm.Got != 2 || dm.Position != -1 {
			t.Errorf("unexpected error fields: %+v", dm)
		}
	})

	t.Run("batch is all-or-nothing", func(t *testing.T) {
		idx, _ := NewMemoryIndex(0)
		_ = idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0)})
		err := idx.Insert(ctx, []models.VectorRecord{
			record("b", 0, 1),
			record("c", 1, 1, 1),
			record("d", 1, 1),
		})
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("err=%v, want ErrDimensionMismatch", err)
		}
		var dm *DimensionMismatchError
		if errors.As(err, &dm) && dm.Position != 1 {
			t.Errorf("Position=%d, want 1", dm.Position)
		}
		if idx.Size() != 1 {
			t.Errorf("Size=%d after failed insert, want 1", idx.Size())
		}
	})

	t.Run("first batch establishes dimensionality", func(t *testing.T) {
		idx, _ := NewMemoryIndex(0)
		err := idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0), record("b", 1, 0, 0)})
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("err=%v, want ErrDimensionMismatch", err)
		}
		if idx.Dimensions() != 0 || idx.Size() != 0 {
			t.Errorf("failed first insert changed state: dims=%d size=%d", idx.Dimensions(), idx.Size())
		}
	})

	t.Run("pinned dimensions", func(t *testing.T) {
		idx, _ := NewMemoryIndex(4)
		err := idx.Insert(ctx, []models.VectorRecord{record("a", 1, 0)})
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("err=%v, want ErrDimensionMismatch", err)
		}
	})
}

func TestMemoryIndex_EmptyEmbedding(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	err := idx.Insert(context.Background(), []models.VectorRecord{record("a")})
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("err=%v, want ErrEmptyEmbedding", err)
	}
}

func TestMemoryIndex_Duplicates(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	batch := []models.VectorRecord{record("same", 1, 0)}
	_ = idx.Insert(ctx, batch)
	_ = idx.Insert(ctx, batch)
	if idx.Size() != 2 {
		t.Errorf("Size=%d, want 2 independent records", idx.Size())
	}
}

func TestMemoryIndex_OwnsStorage(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	r := record("a", 1, 0)
	_ = idx.Insert(ctx, []models.VectorRecord{r})

	r.Embedding[0] = -1
	r.Metadata[models.MetaSource] = "changed"

	results, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if results[0].Score != 1 {
		t.Errorf("caller mutation leaked into index, score=%f", results[0].Score)
	}
	if results[0].Record.Source() != "test.txt" {
		t.Errorf("metadata leaked: %s", results[0].Record.Source())
	}

	results[0].Record.Embedding[1] = 5
	again, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if again[0].Record.Embedding[1] != 0 {
		t.Error("result mutation leaked into index")
	}
}

func TestMemoryIndex_NegativeDimensions(t *testing.T) {
	if _, err := NewMemoryIndex(-1); err == nil {
		t.Error("expected error for negative dimensions")
	}
}

func TestMemoryIndex_ConcurrentSearch(t *testing.T) {
	idx, _ := NewMemoryIndex(0)
	ctx := context.Background()
	done := make(chan error)
	for w := 0; w < 4; w++ {
		go func(w int) {
			for i := 0; i < 50; i++ {
				err := idx.Insert(ctx, []models.VectorRecord{record(fmt.Sprintf("%d-%d", w, i), float32(w+1), float32(i))})
				if err != nil {
					done <- err
					return
				}
				if _, err := idx.Search(ctx, []float32{1, 1}, 3); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(w)
	}
	for w := 0; w < 4; w++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
	if idx.Size() != 200 {
		t.Errorf("Size=%d, want 200", idx.Size())
	}
}
