// Package config provides configuration loading and structs for the DocuMind server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the config file.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvEnvironment   = "DOCUMIND_ENV"
	EnvLogLevel      = "DOCUMIND_LOG_LEVEL"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool            `yaml:"debug"`
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	LLM         LLMConfig       `yaml:"llm"`
	Chunking    ChunkingConfig  `yaml:"chunking"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Watch       WatchConfig     `yaml:"watch"`
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the document catalog location.
type StorageConfig struct {
	// DatabasePath is the SQLite catalog file; ":memory:" keeps it in memory.
	DatabasePath   string `yaml:"database_path"`
	RebuildOnStart *bool  `yaml:"rebuild_on_start"`
}

// RebuildOnStartOrDefault returns whether to re-index the catalog at startup; defaults to true.
func (s *StorageConfig) RebuildOnStartOrDefault() bool {
	if s.RebuildOnStart != nil {
		return *s.RebuildOnStart
	}
	return true
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai", "onnx" or "mock".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	BatchSize  int    `yaml:"batch_size"`
}

// LLMConfig configures the chat model used by the agents.
type LLMConfig struct {
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// TemperatureOrDefault returns the sampling temperature; defaults to 0.3.
func (l *LLMConfig) TemperatureOrDefault() float64 {
	if l.Temperature != nil {
		return *l.Temperature
	}
	return DefaultTemperature
}

// ChunkingConfig holds chunk size and overlap, in characters.
type ChunkingConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// OverlapOrDefault returns the configured overlap; 0 is a valid explicit value.
func (c *ChunkingConfig) OverlapOrDefault() int {
	if c.ChunkOverlap != nil {
		return *c.ChunkOverlap
	}
	return DefaultChunkOverlap
}

// RetrievalConfig holds query-time settings.
type RetrievalConfig struct {
	TopK      int    `yaml:"top_k"`
	IndexType string `yaml:"index_type"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Default returns a configuration built only from defaults and the environment.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	return cfg
}

// Load reads and parses the config file at path, loads a sibling .env file if present,
// expands paths relative to the config directory, and applies environment overrides
// and defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		if err := loadDotEnv(".env"); err != nil {
			return nil, err
		}
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	if cfg.Storage.DatabasePath != MemoryDatabase {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// loadDotEnv populates unset environment variables from path; a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv fills secrets and environment settings from environment variables.
// Explicit file values win over the environment for keys and models.
func ApplyEnv(cfg *Config) {
	if key := os.Getenv(EnvOpenAIKey); key != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
	}
	if url := os.Getenv(EnvOpenAIBaseURL); url != "" {
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = url
		}
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = url
		}
	}
	if model := os.Getenv(EnvOpenAIModel); model != "" && cfg.LLM.Model == "" {
		cfg.LLM.Model = model
	}
	if env := os.Getenv(EnvEnvironment); env != "" {
		cfg.Environment = env
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
}

// Validate reports configuration errors that would make the service unusable.
func Validate(cfg *Config) error {
	var errs []error
	overlap := cfg.Chunking.OverlapOrDefault()
	if cfg.Chunking.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", cfg.Chunking.ChunkSize))
	}
	if overlap < 0 || overlap >= cfg.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size), got %d", overlap))
	}
	if cfg.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK))
	}
	switch cfg.Embedding.Provider {
	case ProviderOpenAI, ProviderMock:
	case ProviderONNX:
		if cfg.Embedding.Dimensions <= 0 {
			errs = append(errs, errors.New("embedding.dimensions is required for the onnx provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", cfg.Embedding.Provider))
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", cfg.Server.Port))
	}
	return errors.Join(errs...)
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is the home directory;
// other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	if abs, err := filepath.Abs(filepath.Join(configDir, path)); err == nil {
		return abs
	}
	return filepath.Join(configDir, path)
}
