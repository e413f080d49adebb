package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const (
	defaultBaseURL    = "https://html.duckduckgo.com"
	defaultMaxResults = 10
	requestTimeout    = 30 * time.Second
	maxBodyBytes      = 1 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client is a keyless search provider scraping the DuckDuckGo HTML interface.
// The page carries no relevance scores, so scores are synthesized from result
// rank. Requests are serialized to one per second; scraping faster gets the
// client blocked.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Config holds the search provider settings.
type Config struct {
	BaseURL string
	Logger  *zap.Logger
}

// NewClient creates a DuckDuckGo search provider.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     cfg.Logger,
	}
}

// Search implements the retrieval provider contract. Depth is recorded on the
// results but does not change the request; the HTML interface has one tier.
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

	searchURL := fmt.Sprintf("%s/html/?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", domain.ErrSearchUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", domain.ErrSearchUnavailable)
	}

	raw, err := parseResults(string(body), maxResults)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", domain.ErrSearchUnavailable)
	}

	results := make([]domain.SearchResult, 0, len(raw))
	for i, r := range raw {
		results = append(results, domain.SearchResult{
			Source:  r.url,
			Title:   r.title,
			Content: r.snippet,
			Score:   rankScore(i),
			Depth:   depth,
		})
	}

	c.logger.Debug("Search finished",
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// rankScore synthesizes a relevance score from result position: the first
// result scores 1.0, each rank drops 0.05, floored at 0.05.
func rankScore(rank int) float64 {
	score := 1.0 - 0.05*float64(rank)
	if score < 0.05 {
		score = 0.05
	}
	return score
}

// classifyStatus maps an HTTP failure into the search error taxonomy: rate
// limits and server errors are transient, other rejections permanent.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("search status %d: %w", code, domain.ErrSearchRateLimited)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("search status %d: %w", code, domain.ErrSearchUnavailable)
	default:
		return fmt.Errorf("search status %d: %w", code, domain.ErrSearchRejected)
	}
}
