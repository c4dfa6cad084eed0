// Package server provides the HTTP API for DocuMind.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/documind/internal/agents"
	"github.com/hyperjump/documind/internal/config"
	"github.com/hyperjump/documind/internal/indexer"
	"github.com/hyperjump/documind/internal/search"
	"github.com/hyperjump/documind/internal/storage"
	"github.com/hyperjump/documind/internal/vector"
	"github.com/hyperjump/documind/internal/watcher"
	"go.uber.org/zap"
)

// requestTimeout bounds a single request, including the LLM round trip of agent calls.
const requestTimeout = 120 * time.Second

// WatchService manages watched directories. *watcher.Watcher implements it.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
	Stats() watcher.Stats
}

// Server is the HTTP server for the DocuMind API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	runner  *agents.Runner
	storage storage.Storage
	vectors vector.VectorIndex
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server

	watch      WatchService
	configPath string
	configMu   sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are persisted to that config file.
func WithWatch(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// NewServer creates a server with the given dependencies. runner may be nil when no
// LLM is configured; the agent endpoints then answer 503.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	runner *agents.Runner,
	storage storage.Storage,
	vectors vector.VectorIndex,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		engine:  engine,
		indexer: idx,
		runner:  runner,
		storage: storage,
		vectors: vectors,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(corsMiddleware(s.config.Server.CORSOrigins))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Post("/documents/upload", s.handleUpload)
		r.Post("/documents", s.handleIndexDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)

		r.Post("/search", s.handleSearch)

		r.Post("/agents/qa", s.handleAgent(agents.KindQA))
		r.Post("/agents/summary", s.handleAgent(agents.KindSummary))
		r.Post("/agents/insights", s.handleAgent(agents.KindInsight))

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return r
}

// requestLogger logs each request through zap at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
