// Package llm generates text completions for the agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/documind/internal/config"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Request is a single system+user prompt exchange.
type Request struct {
	System string
	Prompt string
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAIGenerator calls the chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIGenerator creates a generator from the llm config section.
func NewOpenAIGenerator(cfg *config.LLMConfig) (*OpenAIGenerator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm.api_key is required (or set OPENAI_API_KEY)")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(cfg.TemperatureOrDefault()),
		maxTokens:   maxTokens,
	}, nil
}

// Generate sends the system and user messages and returns the first choice's text.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}
