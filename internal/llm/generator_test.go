package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/documind/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeChatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   got.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		})
	}))
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got chatRequest
	srv := fakeChatServer(t, "  The answer is 42.\n", &got)
	defer srv.Close()

	cfg := &config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}
	g, err := NewOpenAIGenerator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out, err := g.Generate(context.Background(), Request{System: "be brief", Prompt: "question?"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "The answer is 42." {
		t.Errorf("Generate() = %q", out)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 500 {
		t.Errorf("request model/max_tokens = %q/%d", got.Model, got.MaxTokens)
	}
	if got.Temperature < 0.29 || got.Temperature > 0.31 {
		t.Errorf("temperature = %v, want 0.3", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "question?" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAIGenerator_emptyReply(t *testing.T) {
	var got chatRequest
	srv := fakeChatServer(t, "   ", &got)
	defer srv.Close()

	g, err := NewOpenAIGenerator(&config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "custom"})
	if err != nil {
		t.Fatal(err)
	}
	if g.Model() != "custom" {
		t.Errorf("Model() = %q", g.Model())
	}
	if _, err := g.Generate(context.Background(), Request{Prompt: "hi"}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("system message should be omitted when empty: %+v", got.Messages)
	}
}

func TestNewOpenAIGenerator_requiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(&config.LLMConfig{}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewOpenAIGenerator(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
