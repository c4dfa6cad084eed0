// Package cli provides the HTTP client, output formatting and progress helpers used by the documind command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/documind/internal/models"
	"github.com/hyperjump/documind/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat returns the output format named s.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes retrieval results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", len(response.Results), response.QueryTime)
	for i, entry := range response.Results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "[%d] Score: %.4f | %s\n", i+1, entry.Score, sourceLabel(entry))
		if entry.DocumentID != "" {
			fmt.Fprintf(w, "Document: %s\n", entry.DocumentID)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(entry.Text, 300))
	}
	return nil
}

// WriteAgentResponse writes an agent answer followed by its sources.
func WriteAgentResponse(w io.Writer, response *models.AgentResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%s\n\n", response.Response)
	if len(response.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Sources:")
	for _, s := range response.Sources {
		fmt.Fprintf(w, "  - %s (score %.3f)\n", sourceLabel(s), s.Score)
	}
	return nil
}

// WriteUploadResults writes one line per uploaded file, or the results as a JSON array.
func WriteUploadResults(w io.Writer, results []*UploadResult, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []*UploadResult{}
		}
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  %s (%d chunks)\n", r.ID, r.FileName, r.ChunksCreated)
	}
	return nil
}

func sourceLabel(e models.ContextEntry) string {
	if e.Page != nil {
		return fmt.Sprintf("%s, page %d", e.Source, *e.Page)
	}
	return e.Source
}

// Status is the shape of GET /api/v1/status.
type Status struct {
	Documents       int64         `json:"documents"`
	Chunks          int64         `json:"chunks"`
	VectorIndexSize int           `json:"vector_index_size"`
	DiskUsageBytes  *int64        `json:"disk_usage_bytes,omitempty"`
	Config          *StatusConfig `json:"config,omitempty"`
	Watch           *WatchStatus  `json:"watch,omitempty"`
}

// StatusConfig is the configuration section of Status.
type StatusConfig struct {
	VectorIndexType     string `json:"vector_index_type"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	EmbeddingProvider   string `json:"embedding_provider"`
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	TopK                int    `json:"top_k"`
	DatabasePath        string `json:"database_path,omitempty"`
	AgentsEnabled       bool   `json:"agents_enabled"`
	LLMModel            string `json:"llm_model,omitempty"`
}

// WatchStatus is the watcher section of Status.
type WatchStatus struct {
	Directories  []string `json:"directories"`
	FilesIndexed int64    `json:"files_indexed"`
	FilesFailed  int64    `json:"files_failed"`
}

// WriteStatus writes server status in the given format.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "documents:          %d   # catalogued documents\n", status.Documents)
	fmt.Fprintf(w, "chunks:             %d   # text chunks\n", status.Chunks)
	fmt.Fprintf(w, "vector_index_size:  %d   # vectors held in memory\n", status.VectorIndexSize)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # catalog on disk\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "vector_index_type:  %s\n", c.VectorIndexType)
		if c.EmbeddingDimensions > 0 {
			fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
		}
		fmt.Fprintf(w, "embedding:          %s %s\n", c.EmbeddingProvider, c.EmbeddingModel)
		fmt.Fprintf(w, "chunk_size:         %d\n", c.ChunkSize)
		fmt.Fprintf(w, "chunk_overlap:      %d\n", c.ChunkOverlap)
		fmt.Fprintf(w, "top_k:              %d\n", c.TopK)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		if c.AgentsEnabled {
			fmt.Fprintf(w, "llm_model:          %s\n", c.LLMModel)
		} else {
			fmt.Fprintln(w, "llm_model:          (agents disabled)")
		}
	}
	if ws := status.Watch; ws != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# watch")
		for _, d := range ws.Directories {
			fmt.Fprintf(w, "directory:          %s\n", d)
		}
		fmt.Fprintf(w, "files_indexed:      %d\n", ws.FilesIndexed)
		fmt.Fprintf(w, "files_failed:       %d\n", ws.FilesFailed)
	}
	return nil
}
