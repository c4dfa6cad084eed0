package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/documind/internal/llm"
	"github.com/hyperjump/documind/internal/models"
	"go.uber.org/zap"
)

// ErrNoContext is returned when retrieval finds nothing to ground an answer on.
var ErrNoContext = errors.New("no indexed content to answer from")

// Retrieval queries used when summary and insight runs get no explicit focus.
const (
	DefaultSummaryQuery = "main topics, key findings, figures and conclusions"
	DefaultInsightQuery = "risks, opportunities, issues, deadlines and recommendations"
)

// Retriever returns ranked context for a query.
type Retriever interface {
	Search(ctx context.Context, query *models.QueryRequest) (*models.QueryResponse, error)
}

// Runner retrieves context, builds the agent prompt and calls the generator.
type Runner struct {
	retriever Retriever
	generator llm.Generator
	topK      int
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner retrieving topK entries per run (models.DefaultTopK when <= 0).
func NewRunner(retriever Retriever, generator llm.Generator, topK int, opts ...Option) *Runner {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	r := &Runner{retriever: retriever, generator: generator, topK: topK, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the agent of the given kind. QA requires a query; summary and insight
// fall back to a default retrieval query. topK <= 0 uses the runner default.
func (r *Runner) Run(ctx context.Context, kind Kind, query string, topK int) (*models.AgentResponse, error) {
	agent, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		switch agent.(type) {
		case Summary:
			query = DefaultSummaryQuery
		case Insight:
			query = DefaultInsightQuery
		default:
			return nil, models.ErrEmptyQuery
		}
	}
	if topK <= 0 {
		topK = r.topK
	}

	retrieved, err := r.retriever.Search(ctx, &models.QueryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(retrieved.Results) == 0 {
		return nil, ErrNoContext
	}

	prompt := agent.BuildPrompt(query, BuildContext(retrieved.Results))
	r.logger.Debug("agent prompt built",
		zap.String("agent", string(kind)),
		zap.Int("context_entries", len(retrieved.Results)),
		zap.Int("prompt_len", len(prompt)))

	answer, err := r.generator.Generate(ctx, llm.Request{System: agent.SystemPrompt(), Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("generate %s response: %w", kind, err)
	}
	return &models.AgentResponse{
		Agent:    string(kind),
		Response: answer,
		Sources:  retrieved.Results,
	}, nil
}
