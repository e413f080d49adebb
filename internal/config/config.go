package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pipeline service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	// RequestTimeoutSec bounds one whole pipeline run triggered by a request.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
}

// LLMConfig holds language model provider settings.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic (default: openai)
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	// BaseURL overrides the provider endpoint (any OpenAI-compatible server).
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SearchConfig holds web search provider settings.
type SearchConfig struct {
	Provider          string      `yaml:"provider"` // tavily, duckduckgo (default: tavily)
	APIKey            string      `yaml:"api_key"`
	BaseURL           string      `yaml:"base_url"`
	MaxResults        int         `yaml:"max_results"`
	RequestsPerSecond float64     `yaml:"requests_per_second"`
	Retry             RetryConfig `yaml:"retry"`
}

// RetryConfig holds the search retry/backoff schedule.
type RetryConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`
	InitialDelaySec int     `yaml:"initial_delay_sec"`
	MaxDelaySec     int     `yaml:"max_delay_sec"`
	Multiplier      float64 `yaml:"multiplier"`
}

// PipelineConfig holds orchestration knobs.
type PipelineConfig struct {
	MaxSubQueries     int `yaml:"max_subqueries"`
	MaxSubQueryLength int `yaml:"max_subquery_length"`
	// AdvancedWordThreshold: sub-queries with more words start at advanced depth.
	AdvancedWordThreshold int `yaml:"advanced_word_threshold"`
	// AdvancedFanoutThreshold: decompositions with more sub-queries start at advanced depth.
	AdvancedFanoutThreshold int             `yaml:"advanced_fanout_threshold"`
	Relevance               RelevanceConfig `yaml:"relevance"`
	Review                  ReviewConfig    `yaml:"review"`
}

// RelevanceConfig holds the relevance filter thresholds.
type RelevanceConfig struct {
	MinScore float64 `yaml:"min_score"`
	MaxKept  int     `yaml:"max_kept"`
}

// ReviewConfig holds the post-synthesis review pass settings.
type ReviewConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Answers wait on LLM and search round trips; keep this generous.
		c.HTTP.WriteTimeoutSec = 150
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "tavily"
	}
	if c.Search.BaseURL == "" && c.Search.Provider == "tavily" {
		c.Search.BaseURL = "https://api.tavily.com"
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.RequestsPerSecond <= 0 {
		c.Search.RequestsPerSecond = 1
	}
	if c.Search.Retry.MaxAttempts <= 0 {
		c.Search.Retry.MaxAttempts = 3
	}
	if c.Search.Retry.InitialDelaySec <= 0 {
		c.Search.Retry.InitialDelaySec = 2
	}
	if c.Search.Retry.MaxDelaySec <= 0 {
		c.Search.Retry.MaxDelaySec = 10
	}
	if c.Search.Retry.Multiplier <= 0 {
		c.Search.Retry.Multiplier = 2
	}
	if c.Pipeline.MaxSubQueries <= 0 {
		c.Pipeline.MaxSubQueries = 15
	}
	if c.Pipeline.MaxSubQueryLength <= 0 {
		c.Pipeline.MaxSubQueryLength = 400
	}
	if c.Pipeline.AdvancedWordThreshold <= 0 {
		c.Pipeline.AdvancedWordThreshold = 8
	}
	if c.Pipeline.AdvancedFanoutThreshold <= 0 {
		c.Pipeline.AdvancedFanoutThreshold = 3
	}
	if c.Pipeline.Relevance.MinScore <= 0 {
		c.Pipeline.Relevance.MinScore = 0.5
	}
	if c.Pipeline.Relevance.MaxKept <= 0 {
		c.Pipeline.Relevance.MaxKept = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	switch c.Search.Provider {
	case "tavily":
		if c.Search.APIKey == "" {
			return fmt.Errorf("search.api_key is required for the tavily provider")
		}
	case "duckduckgo":
	default:
		return fmt.Errorf("search.provider must be \"tavily\" or \"duckduckgo\", got %q", c.Search.Provider)
	}
	if c.Search.Retry.Multiplier < 1 {
		return fmt.Errorf("search.retry.multiplier must be >= 1, got %v", c.Search.Retry.Multiplier)
	}
	if c.Pipeline.Relevance.MinScore < 0 {
		return fmt.Errorf("pipeline.relevance.min_score must be >= 0, got %v", c.Pipeline.Relevance.MinScore)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
