package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	ragpipeline "github.com/Av0cat0/tavily-rag-pipeline"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/version"
	"github.com/Av0cat0/tavily-rag-pipeline/pkg/client"
)

var (
	flagSubQueries bool
	flagReview     bool
	flagJSON       bool
	flagTimeout    time.Duration
	flagServer     string
	flagLLM        string
	flagModel      string
	flagSearch     string
)

var rootCmd = &cobra.Command{
	Use:   "ragcli <query>",
	Short: "Answer a question with retrieval-augmented generation",
	Long: `ragcli decomposes a question into sub-queries, searches the web for each,
and synthesizes a grounded answer with a language model.

By default it runs the pipeline in-process and reads provider credentials
from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY, TAVILY_API_KEY).
Pass --server to answer against a running ragd instead.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runQuery,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version.Version, version.Commit)

	rootCmd.Flags().BoolVar(&flagSubQueries, "show-subqueries", false, "Print the decomposed sub-queries before the answer")
	rootCmd.Flags().BoolVar(&flagReview, "review", false, "Critique the draft answer and retry once if it is judged inaccurate")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit the result as JSON instead of banners")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 150*time.Second, "End-to-end deadline for the answer")
	rootCmd.Flags().StringVar(&flagServer, "server", "", "Answer against a running ragd at this base URL")
	rootCmd.Flags().StringVar(&flagLLM, "llm", "openai", "Language model provider: openai or anthropic")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "Model name, provider default when empty")
	rootCmd.Flags().StringVar(&flagSearch, "search", "duckduckgo", "Search provider: tavily or duckduckgo")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := args[0]

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	if !flagJSON {
		printBanner(humanStyle, "Human Query", query)
	}

	if flagServer != "" {
		return runRemote(ctx, query)
	}
	return runLocal(ctx, query)
}

func runLocal(ctx context.Context, query string) error {
	opts, err := pipelineOptions()
	if err != nil {
		return err
	}

	pipeline, err := ragpipeline.New(opts...)
	if err != nil {
		return err
	}

	resp, err := pipeline.Run(ctx, query)
	if err != nil {
		return err
	}

	return emit(output{
		Query:          query,
		Answer:         resp.Answer,
		Status:         resp.Status,
		SubQueries:     resp.SubQueries,
		FromCheckpoint: resp.FromCheckpoint,
	})
}

func runRemote(ctx context.Context, query string) error {
	c := client.New(flagServer, client.WithTimeout(flagTimeout))

	resp, err := c.Answer(ctx, query)
	if err != nil {
		return err
	}

	return emit(output{
		Query:          query,
		Answer:         resp.Answer,
		Status:         resp.Status,
		SubQueries:     resp.SubQueries,
		FromCheckpoint: resp.FromCheckpoint,
	})
}

func pipelineOptions() ([]ragpipeline.Option, error) {
	var opts []ragpipeline.Option

	switch flagLLM {
	case "openai":
		opts = append(opts, ragpipeline.WithOpenAI(os.Getenv("OPENAI_API_KEY"), flagModel))
	case "anthropic":
		opts = append(opts, ragpipeline.WithAnthropic(os.Getenv("ANTHROPIC_API_KEY"), flagModel))
	default:
		return nil, fmt.Errorf("unknown llm provider %q", flagLLM)
	}

	switch flagSearch {
	case "tavily":
		opts = append(opts, ragpipeline.WithTavily(os.Getenv("TAVILY_API_KEY")))
	case "duckduckgo":
		opts = append(opts, ragpipeline.WithDuckDuckGo())
	default:
		return nil, fmt.Errorf("unknown search provider %q", flagSearch)
	}

	if flagReview {
		opts = append(opts, ragpipeline.WithReview())
	}

	return opts, nil
}
