// Package ragpipeline answers free-text questions by decomposing them into
// sub-queries, retrieving web context for each in parallel, and synthesizing
// a final answer with a language model. Completed answers are memoized
// in-process, so repeating a query is free.
package ragpipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/repository/checkpoint"
	anthropicLLM "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/anthropic"
	ddgSearch "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/duckduckgo"
	openaiLLM "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/openai"
	tavilySearch "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/tavily"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/completion"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/decompose"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/research"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/retrieval"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/review"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/synthesis"
)

const defaultMaxSubQueryLength = 400

// Pipeline is the ragpipeline SDK entry point.
type Pipeline struct {
	research *research.Service
	usage    *completion.Instrumented
	logger   *zap.Logger
}

// Response is one answered query.
type Response struct {
	Answer         string
	Status         string
	SubQueries     []string
	FromCheckpoint bool
	Reviewed       bool
}

// Usage is the cumulative token consumption across all runs of a Pipeline.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// New creates a Pipeline. A language model must be selected with WithOpenAI
// or WithAnthropic; search defaults to the keyless DuckDuckGo provider.
func New(opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.registerMetrics {
		metrics.RegisterPipelineMetrics()
	}

	llm, err := buildCompleter(&cfg)
	if err != nil {
		return nil, err
	}
	instrumented := completion.NewInstrumented(llm, cfg.llmProvider, cfg.llmModel, cfg.logger)

	provider, err := buildSearchProvider(&cfg)
	if err != nil {
		return nil, err
	}

	backoff := retrieval.DefaultBackoff()
	if cfg.searchRetries > 0 {
		backoff.MaxAttempts = cfg.searchRetries
	}
	retriever := retrieval.New(provider, cfg.searchProvider, retrieval.Config{
		Backoff:           backoff,
		MaxResults:        cfg.maxResults,
		MaxSubQueryLength: defaultMaxSubQueryLength,
		MinScore:          cfg.minScore,
		MaxKept:           cfg.maxKept,
	}, cfg.logger)

	decomposer := decompose.New(instrumented, cfg.maxSubQueries, cfg.temperature, cfg.logger)
	synthesizer := synthesis.New(instrumented, cfg.temperature, cfg.logger)

	var reviewer research.Reviewer
	if cfg.reviewEnabled {
		reviewer = review.New(instrumented, cfg.temperature, cfg.logger)
	}

	store := checkpoint.New(metrics.CheckpointTotal, cfg.logger)

	svc := research.New(decomposer, retriever, synthesizer, reviewer, store, research.Config{
		AdvancedWordThreshold:   cfg.wordThreshold,
		AdvancedFanoutThreshold: cfg.fanoutThreshold,
		ReviewEnabled:           cfg.reviewEnabled,
	}, cfg.logger)

	return &Pipeline{
		research: svc,
		usage:    instrumented,
		logger:   cfg.logger,
	}, nil
}

func defaultConfig() clientConfig {
	return clientConfig{
		temperature:     0.3,
		maxTokens:       1024,
		searchProvider:  "duckduckgo",
		maxResults:      10,
		searchRate:      1,
		maxSubQueries:   15,
		wordThreshold:   8,
		fanoutThreshold: 3,
		minScore:        0.5,
		maxKept:         4,
	}
}

func buildCompleter(cfg *clientConfig) (domain.Completer, error) {
	if cfg.llmAPIKey == "" && cfg.llmBaseURL == "" {
		return nil, errors.New("ragpipeline: llm api key required (use WithOpenAI or WithAnthropic)")
	}

	switch cfg.llmProvider {
	case "openai":
		model := cfg.llmModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		cfg.llmModel = model
		return openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:    cfg.llmAPIKey,
			BaseURL:   cfg.llmBaseURL,
			Model:     model,
			MaxTokens: cfg.maxTokens,
			Logger:    cfg.logger,
		}), nil
	case "anthropic":
		model := cfg.llmModel
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		cfg.llmModel = model
		return anthropicLLM.NewCompleter(&anthropicLLM.Config{
			APIKey:    cfg.llmAPIKey,
			BaseURL:   cfg.llmBaseURL,
			Model:     model,
			MaxTokens: cfg.maxTokens,
			Logger:    cfg.logger,
		}), nil
	default:
		return nil, errors.New("ragpipeline: language model required (use WithOpenAI or WithAnthropic)")
	}
}

func buildSearchProvider(cfg *clientConfig) (retrieval.Provider, error) {
	switch cfg.searchProvider {
	case "tavily":
		if cfg.searchAPIKey == "" && cfg.searchBaseURL == "" {
			return nil, errors.New("ragpipeline: tavily api key required (use WithTavily)")
		}
		return tavilySearch.NewClient(&tavilySearch.Config{
			APIKey:            cfg.searchAPIKey,
			BaseURL:           cfg.searchBaseURL,
			RequestsPerSecond: cfg.searchRate,
			Logger:            cfg.logger,
		}), nil
	case "duckduckgo":
		return ddgSearch.NewClient(&ddgSearch.Config{
			BaseURL: cfg.searchBaseURL,
			Logger:  cfg.logger,
		}), nil
	default:
		return nil, fmt.Errorf("ragpipeline: unknown search provider %q", cfg.searchProvider)
	}
}

// Run answers one query end to end. Concurrent calls with the same query share
// a single execution; completed answers are served from the checkpoint store
// for the lifetime of this Pipeline.
func (p *Pipeline) Run(ctx context.Context, query string) (Response, error) {
	res, err := p.research.Run(ctx, domain.Query(query))
	if err != nil {
		return Response{}, fmt.Errorf("run: %w", err)
	}

	subs := make([]string, len(res.State.SubQueries))
	for i, sq := range res.State.SubQueries {
		subs[i] = string(sq)
	}

	return Response{
		Answer:         res.State.Answer,
		Status:         res.State.Status.String(),
		SubQueries:     subs,
		FromCheckpoint: res.FromCheckpoint,
		Reviewed:       res.State.Reviewed,
	}, nil
}

// Usage reports cumulative token consumption across all model calls.
func (p *Pipeline) Usage() Usage {
	prompt, comp := p.usage.Usage()
	return Usage{PromptTokens: prompt, CompletionTokens: comp}
}
