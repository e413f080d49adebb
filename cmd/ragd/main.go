package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/config"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	logpkg "github.com/Av0cat0/tavily-rag-pipeline/internal/logger"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/repository/checkpoint"
	anthropicLLM "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/anthropic"
	chiTransport "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/chi"
	ddgSearch "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/duckduckgo"
	openaiLLM "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/openai"
	tavilySearch "github.com/Av0cat0/tavily-rag-pipeline/internal/transport/tavily"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/completion"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/decompose"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/research"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/retrieval"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/review"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/synthesis"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting answer API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("search_provider", cfg.Search.Provider),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Build the pipeline (composition root)
	llm := buildCompleter(cfg, logger)
	instrumented := completion.NewInstrumented(llm, cfg.LLM.Provider, cfg.LLM.Model, logger)

	provider := buildSearchProvider(cfg, logger)
	retriever := retrieval.New(provider, cfg.Search.Provider, retrieval.Config{
		Backoff: retrieval.BackoffPolicy{
			MaxAttempts:  cfg.Search.Retry.MaxAttempts,
			InitialDelay: time.Duration(cfg.Search.Retry.InitialDelaySec) * time.Second,
			MaxDelay:     time.Duration(cfg.Search.Retry.MaxDelaySec) * time.Second,
			Multiplier:   cfg.Search.Retry.Multiplier,
		},
		MaxResults:        cfg.Search.MaxResults,
		MaxSubQueryLength: cfg.Pipeline.MaxSubQueryLength,
		MinScore:          cfg.Pipeline.Relevance.MinScore,
		MaxKept:           cfg.Pipeline.Relevance.MaxKept,
	}, logger)

	decomposer := decompose.New(instrumented, cfg.Pipeline.MaxSubQueries, cfg.LLM.Temperature, logger)
	synthesizer := synthesis.New(instrumented, cfg.LLM.Temperature, logger)

	var reviewer research.Reviewer
	if cfg.Pipeline.Review.Enabled {
		reviewer = review.New(instrumented, cfg.LLM.Temperature, logger)
	}

	store := checkpoint.New(metrics.CheckpointTotal, logger)

	researchSvc := research.New(decomposer, retriever, synthesizer, reviewer, store, research.Config{
		AdvancedWordThreshold:   cfg.Pipeline.AdvancedWordThreshold,
		AdvancedFanoutThreshold: cfg.Pipeline.AdvancedFanoutThreshold,
		ReviewEnabled:           cfg.Pipeline.Review.Enabled,
	}, logger)

	server := chiTransport.NewServer(
		researchSvc,
		time.Duration(cfg.HTTP.RequestTimeoutSec)*time.Second,
		logger,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCompleter selects the language model transport from config.
func buildCompleter(cfg config.Config, logger *zap.Logger) domain.Completer {
	switch cfg.LLM.Provider {
	case "openai":
		return openaiLLM.NewCompleter(&openaiLLM.Config{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Logger:    logger,
		})
	case "anthropic":
		return anthropicLLM.NewCompleter(&anthropicLLM.Config{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Logger:    logger,
		})
	default:
		logger.Fatal("Unknown llm provider", zap.String("provider", cfg.LLM.Provider))
		return nil
	}
}

// buildSearchProvider selects the web search transport from config.
func buildSearchProvider(cfg config.Config, logger *zap.Logger) retrieval.Provider {
	switch cfg.Search.Provider {
	case "tavily":
		return tavilySearch.NewClient(&tavilySearch.Config{
			APIKey:            cfg.Search.APIKey,
			BaseURL:           cfg.Search.BaseURL,
			RequestsPerSecond: cfg.Search.RequestsPerSecond,
			Logger:            logger,
		})
	case "duckduckgo":
		return ddgSearch.NewClient(&ddgSearch.Config{
			BaseURL: cfg.Search.BaseURL,
			Logger:  logger,
		})
	default:
		logger.Fatal("Unknown search provider", zap.String("provider", cfg.Search.Provider))
		return nil
	}
}
