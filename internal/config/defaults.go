package config

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
)

// MemoryDatabase keeps the catalog in memory (nothing survives a restart).
const MemoryDatabase = ":memory:"

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
	DefaultTopK         = 5
	DefaultTemperature  = 0.3
)

// DefaultExtensions are the file types the watcher and upload command pick up.
var DefaultExtensions = []string{
	".txt", ".md", ".rst", ".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".ods", ".pptx", ".odp",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 50 << 20
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "~/.documind/catalog.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Provider == ProviderOpenAI {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Provider == ProviderONNX {
		if cfg.Embedding.ModelPath == "" {
			cfg.Embedding.ModelPath = "~/.documind/models/all-MiniLM-L6-v2.onnx"
		}
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Provider == ProviderMock && cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 100
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = DefaultChunkSize
	}
	if cfg.Chunking.ChunkOverlap == nil {
		o := DefaultChunkOverlap
		cfg.Chunking.ChunkOverlap = &o
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.IndexType == "" {
		cfg.Retrieval.IndexType = "memory"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = append([]string(nil), DefaultExtensions...)
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
