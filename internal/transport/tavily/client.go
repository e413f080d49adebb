package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 10
	requestTimeout    = 30 * time.Second
)

// Client is a search provider backed by the Tavily search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Config holds the search provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond caps the client-side request rate. Zero means one
	// request per second.
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// NewClient creates a Tavily search provider.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     cfg.Logger,
	}
}

// searchRequest mirrors the Tavily search API request body.
type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
	MaxResults        int    `json:"max_results"`
}

// searchResponse mirrors the Tavily search API response body.
type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements the retrieval provider contract. Calls are paced by the
// client-side rate limiter before they reach the network.
func (c *Client) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	depth := opts.Depth
	if depth == "" {
		depth = domain.DepthBasic
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: string(depth),
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", domain.ErrSearchUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", domain.ErrSearchUnavailable)
	}

	results := make([]domain.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, domain.SearchResult{
			Source:  r.URL,
			Title:   r.Title,
			Content: r.Content,
			Score:   r.Score,
			Depth:   depth,
		})
	}

	c.logger.Debug("Search finished",
		zap.String("depth", string(depth)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// classifyStatus maps an HTTP failure into the search error taxonomy: rate
// limits and server errors are transient, other rejections permanent.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("search API status %d: %w", code, domain.ErrSearchRateLimited)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("search API status %d: %w", code, domain.ErrSearchUnavailable)
	default:
		return fmt.Errorf("search API status %d: %w", code, domain.ErrSearchRejected)
	}
}
