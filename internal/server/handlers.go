package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/documind/internal/agents"
	"github.com/hyperjump/documind/internal/config"
	"github.com/hyperjump/documind/internal/indexer"
	"github.com/hyperjump/documind/internal/models"
	"github.com/hyperjump/documind/internal/storage"
	"github.com/hyperjump/documind/internal/vector"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// uploadResponse is returned after a successful upload.
type uploadResponse struct {
	ID            string `json:"id"`
	FileName      string `json:"filename"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created"`
}

// documentSummary is a catalog entry without its text.
type documentSummary struct {
	ID         string            `json:"id"`
	FileName   string            `json:"file_name"`
	FileType   string            `json:"file_type"`
	Source     string            `json:"source"`
	Pages      int               `json:"pages"`
	ChunkCount int               `json:"chunk_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func summarize(doc *models.Document) documentSummary {
	return documentSummary{
		ID:         doc.ID,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		Source:     doc.Source,
		Pages:      doc.NumPages(),
		ChunkCount: doc.ChunkCount,
		Metadata:   doc.Metadata,
		CreatedAt:  doc.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.Server.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, "upload rejected", err)
			return
		}
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, "upload read failed", err)
		return
	}
	s.logger.Debug("upload request", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))
	doc, err := s.indexer.IndexUpload(r.Context(), header.Filename, content)
	if err != nil {
		s.fail(w, "upload indexing failed", err)
		return
	}
	s.logger.Info("Document uploaded",
		zap.String("id", doc.ID),
		zap.String("filename", doc.FileName),
		zap.Int("chunks", doc.ChunkCount))
	s.respondJSON(w, http.StatusCreated, uploadResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		Status:        "success",
		ChunksCreated: doc.ChunkCount,
	})
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index document request", zap.String("id", input.ID), zap.String("source", input.Source))
	doc, err := s.indexer.IndexDocument(r.Context(), &input)
	if err != nil {
		s.fail(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		Status:        "success",
		ChunksCreated: doc.ChunkCount,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxListLimit)
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	var docs []*models.Document
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		docs, err = s.engine.FindDocuments(r.Context(), text, limit)
	} else {
		docs, err = s.storage.ListDocuments(r.Context(), offset, limit)
	}
	if err != nil {
		s.fail(w, "list documents failed", err)
		return
	}
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, summarize(d))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": out, "count": len(out)})
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.fail(w, "get document failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAgent(kind agents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.runner == nil {
			s.respondError(w, http.StatusServiceUnavailable, "no language model configured")
			return
		}
		var req models.AgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.logger.Debug("agent request", zap.String("agent", string(kind)), zap.String("question", req.Question))
		resp, err := s.runner.Run(r.Context(), kind, req.Question, req.TopK)
		if err != nil {
			s.fail(w, "agent failed", err)
			return
		}
		s.respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.fail(w, "status: count documents failed", err)
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.fail(w, "status: count chunks failed", err)
		return
	}
	resp := map[string]interface{}{
		"documents":         docCount,
		"chunks":            chunkCount,
		"vector_index_size": s.vectors.Size(),
	}

	cfg := s.config
	configInfo := map[string]interface{}{
		"vector_index_type":    s.vectors.Type(),
		"embedding_dimensions": s.vectors.Dimensions(),
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_model":      cfg.Embedding.Model,
		"chunk_size":           cfg.Chunking.ChunkSize,
		"chunk_overlap":        cfg.Chunking.OverlapOrDefault(),
		"top_k":                cfg.Retrieval.TopK,
		"database_path":        cfg.Storage.DatabasePath,
		"agents_enabled":       s.runner != nil,
	}
	if s.runner != nil {
		configInfo["llm_model"] = cfg.LLM.Model
	}
	resp["config"] = configInfo

	if diskBytes, err := storage.CatalogDiskUsage(cfg.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.watch != nil {
		stats := s.watch.Stats()
		resp["watch"] = map[string]interface{}{
			"directories":   s.watch.Directories(),
			"files_indexed": stats.Indexed,
			"files_failed":  stats.Failed,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.fail(w, "watch add directory failed", err)
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.fail(w, "watch add directory failed", err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.fail(w, "watch remove directory failed", err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch list back to the config file, if any.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, models.ErrEmptyQuery),
		errors.Is(err, vector.ErrInvalidTopK),
		errors.Is(err, indexer.ErrNoChunks):
		return http.StatusBadRequest
	case errors.Is(err, vector.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, agents.ErrNoContext):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// fail logs err and writes it with the status it maps to.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err), zap.Int("status", status))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
