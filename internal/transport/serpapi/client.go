// Package serpapi implements the remote search-volume estimator backed by
// SerpAPI's Google engine. Volume is approximated from the result count of a
// quoted search, which tracks real interest far better than string heuristics.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
)

const providerName = "serpapi"

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client estimates keyword search volume via SerpAPI.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// New creates a SerpAPI client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     cfg.Logger,
	}
}

type searchResponse struct {
	SearchInformation struct {
		TotalResults int64 `json:"total_results"`
	} `json:"search_information"`
	Error string `json:"error"`
}

// EstimateVolume returns an approximate monthly search volume for the
// keyword, derived from the indexed result count on a log scale.
func (c *Client) EstimateVolume(ctx context.Context, keyword string) (int64, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", fmt.Sprintf("%q", keyword))
	params.Set("num", "10")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build volume request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "volume", "error").Inc()
		return 0, &retry.RemoteError{Kind: retry.Transient, Err: fmt.Errorf("volume request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "volume", "error").Inc()
		return 0, &retry.RemoteError{Kind: retry.Transient, Err: fmt.Errorf("read volume response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "volume", "error").Inc()
		kind := retry.Transient
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			kind = retry.RateLimited
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			kind = retry.Fatal
		}
		return 0, &retry.RemoteError{Kind: kind, Status: resp.StatusCode,
			Err: fmt.Errorf("volume API error: %s", string(body))}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &retry.RemoteError{Kind: retry.Fatal, Status: resp.StatusCode,
			Err: fmt.Errorf("decode volume response: %w", err)}
	}
	if parsed.Error != "" {
		return 0, &retry.RemoteError{Kind: retry.Fatal, Status: resp.StatusCode,
			Err: fmt.Errorf("volume API error: %s", parsed.Error)}
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "volume", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(providerName, "volume").Observe(duration.Seconds())

	return scaleTotalResults(parsed.SearchInformation.TotalResults), nil
}

// scaleTotalResults compresses an indexed-page count into a monthly-volume
// figure. The mapping is logarithmic: ten times the pages roughly doubles
// the estimated volume, capped at 50000.
func scaleTotalResults(total int64) int64 {
	if total <= 0 {
		return 0
	}
	v := int64(math.Pow(2, math.Log10(float64(total))) * 100)
	if v > 50000 {
		return 50000
	}
	return v
}
