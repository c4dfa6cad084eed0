package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/documind/internal/models"
)

func TestClient(t *testing.T) {
	var uploaded string
	var removed string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		var req models.QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.QueryResponse{
			Query:   req.Query,
			TopK:    req.TopK,
			Results: []models.ContextEntry{{Text: "hit", Source: "a.txt", Score: 0.5}},
		})
	})
	mux.HandleFunc("/api/v1/agents/qa", func(w http.ResponseWriter, r *http.Request) {
		var req models.AgentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.AgentResponse{Agent: "qa", Response: "answer to " + req.Question})
	})
	mux.HandleFunc("/api/v1/agents/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"no language model configured"}`)
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"documents":2,"chunks":5,"vector_index_size":5,"config":{"vector_index_type":"memory","chunk_size":800}}`)
	})
	mux.HandleFunc("/api/v1/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		uploaded = h.Filename + ":" + string(b)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(UploadResult{ID: "doc:1", FileName: h.Filename, Status: "success", ChunksCreated: 1})
	})
	mux.HandleFunc("/api/v1/watch/directories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"directories":["/docs"]}`)
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			removed = r.URL.Query().Get("path")
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL+"/", 5*time.Second)
	ctx := context.Background()

	res, err := c.Search(ctx, "budget", 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Query != "budget" || res.TopK != 3 || len(res.Results) != 1 {
		t.Errorf("Search() = %+v", res)
	}

	ans, err := c.Agent(ctx, "qa", "why?", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Response != "answer to why?" {
		t.Errorf("Agent() response = %q", ans.Response)
	}

	_, err = c.Agent(ctx, "summary", "", 0)
	if !IsStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
	if err.(*APIError).Message != "no language model configured" {
		t.Errorf("message = %q", err.(*APIError).Message)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Documents != 2 || st.Config == nil || st.Config.ChunkSize != 800 {
		t.Errorf("Status() = %+v", st)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	up, err := c.Upload(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if up.ID != "doc:1" || uploaded != "notes.txt:hello" {
		t.Errorf("Upload() = %+v, server saw %q", up, uploaded)
	}

	dirs, err := c.WatchDirectories(ctx)
	if err != nil || len(dirs) != 1 {
		t.Errorf("WatchDirectories() = %v, %v", dirs, err)
	}
	if err := c.AddWatchDirectory(ctx, "/docs", true); err != nil {
		t.Error(err)
	}
	if err := c.RemoveWatchDirectory(ctx, "/docs & more"); err != nil {
		t.Error(err)
	}
	if removed != "/docs & more" {
		t.Errorf("server saw path %q", removed)
	}
}

func TestClient_serverDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, time.Second)
	if _, err := c.Status(context.Background()); err == nil {
		t.Error("expected error when the server is not running")
	}
}
