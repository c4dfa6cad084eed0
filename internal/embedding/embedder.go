// Package embedding provides text embedding via OpenAI, ONNX and caching.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/documind/internal/config"
)

// ErrEmptyText is returned when asked to embed an empty string.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding length, or 0 if not known before the first call.
	Dimensions() int
	Close() error
}

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		e, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
		})
	case config.ProviderONNX:
		e, err = NewONNXEmbedder(ONNXConfig{
			ModelPath:  cfg.ModelPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
		})
	case config.ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
