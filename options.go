package ragpipeline

import (
	"go.uber.org/zap"
)

// Option configures the Pipeline.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	llmProvider string // "openai" or "anthropic"
	llmModel    string
	llmAPIKey   string
	llmBaseURL  string
	temperature float32
	maxTokens   int

	searchProvider string // "tavily" or "duckduckgo"
	searchAPIKey   string
	searchBaseURL  string
	maxResults     int
	searchRate     float64
	searchRetries  int

	maxSubQueries   int
	wordThreshold   int
	fanoutThreshold int
	minScore        float64
	maxKept         int
	reviewEnabled   bool

	logger          *zap.Logger
	registerMetrics bool
}

// WithOpenAI selects an OpenAI chat model. An empty model defaults to
// gpt-4o-mini. Works against any OpenAI-compatible endpoint together with
// WithLLMBaseURL.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmProvider = "openai"
		c.llmAPIKey = apiKey
		if model != "" {
			c.llmModel = model
		}
	})
}

// WithAnthropic selects an Anthropic messages model. An empty model defaults
// to claude-3-5-haiku-latest.
func WithAnthropic(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmProvider = "anthropic"
		c.llmAPIKey = apiKey
		if model != "" {
			c.llmModel = model
		}
	})
}

// WithLLMBaseURL overrides the language model endpoint.
func WithLLMBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmBaseURL = url
	})
}

// WithTemperature sets the sampling temperature for every model call.
// Default: 0.3.
func WithTemperature(t float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.temperature = t
	})
}

// WithMaxTokens bounds the model reply length. Default: 1024.
func WithMaxTokens(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = n
	})
}

// WithTavily selects the Tavily search provider.
func WithTavily(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchProvider = "tavily"
		c.searchAPIKey = apiKey
	})
}

// WithDuckDuckGo selects the keyless DuckDuckGo search provider (default).
func WithDuckDuckGo() Option {
	return optionFunc(func(c *clientConfig) {
		c.searchProvider = "duckduckgo"
	})
}

// WithSearchBaseURL overrides the search provider endpoint.
func WithSearchBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchBaseURL = url
	})
}

// WithMaxResults sets how many documents each search requests. Default: 10.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithSearchRate caps outgoing search requests per second. Default: 1.
func WithSearchRate(rps float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchRate = rps
	})
}

// WithSearchRetries sets how many attempts a transient search failure gets
// before the sub-query is given up. Default: 3.
func WithSearchRetries(attempts int) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchRetries = attempts
	})
}

// WithMaxSubQueries caps how many sub-queries a decomposition may produce.
// Default: 15.
func WithMaxSubQueries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSubQueries = n
	})
}

// WithAdvancedThresholds tunes when retrieval starts at advanced depth: a
// sub-query longer than words, or a decomposition wider than fanout.
// Defaults: 8 words, fanout 3.
func WithAdvancedThresholds(words, fanout int) Option {
	return optionFunc(func(c *clientConfig) {
		c.wordThreshold = words
		c.fanoutThreshold = fanout
	})
}

// WithRelevance tunes the retrieval filter: results below minScore are
// dropped and at most maxKept survive per sub-query. Defaults: 0.5, 4.
func WithRelevance(minScore float64, maxKept int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = minScore
		c.maxKept = maxKept
	})
}

// WithReview enables the post-synthesis review round: the model critiques the
// draft answer, and a draft judged inaccurate triggers one advanced re-search
// and re-synthesis.
func WithReview() Option {
	return optionFunc(func(c *clientConfig) {
		c.reviewEnabled = true
	})
}

// WithLogger enables structured logging for pipeline operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers pipeline metrics on the default Prometheus
// registry. Disabled by default.
func WithPrometheus() Option {
	return optionFunc(func(c *clientConfig) {
		c.registerMetrics = true
	})
}
