// Package youtube implements the typed client for the YouTube Data API v3:
// keyword search, batched channel lookup and batched video statistics.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
)

const providerName = "youtube"

// BatchLimit is the provider's hard cap on IDs per list call.
const BatchLimit = 50

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the YouTube Data API v3.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// New creates a YouTube API client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     cfg.Logger,
	}
}

// SearchPage fetches one page of video search results ordered by relevance.
// A zero publishedAfter omits the recency filter.
func (c *Client) SearchPage(ctx context.Context, query string, pageSize int, pageToken string, publishedAfter time.Time) (domain.SearchPage, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(pageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	if !publishedAfter.IsZero() {
		params.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
	}

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return domain.SearchPage{}, err
	}

	page := domain.SearchPage{NextPageToken: resp.NextPageToken}
	for i, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		page.Hits = append(page.Hits, domain.SearchHit{
			VideoID:   item.ID.VideoID,
			ChannelID: item.Snippet.ChannelID,
			Position:  i,
		})
	}
	return page, nil
}

// ChannelsByIDs fetches channel statistics for up to BatchLimit channel IDs.
// IDs absent from the response are simply missing from the result.
func (c *Client) ChannelsByIDs(ctx context.Context, ids []string) ([]domain.Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > BatchLimit {
		return nil, fmt.Errorf("channels batch of %d exceeds limit %d", len(ids), BatchLimit)
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics,status")
	params.Set("id", strings.Join(ids, ","))

	var resp channelsResponse
	if err := c.get(ctx, "channels", params, &resp); err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		channels = append(channels, domain.Channel{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Subscribers: parseCount(item.Statistics.SubscriberCount),
			TotalViews:  parseCount(item.Statistics.ViewCount),
			VideoCount:  parseCount(item.Statistics.VideoCount),
			Country:     item.Snippet.Country,
			Verified:    item.Status.IsLinked,
		})
	}
	return channels, nil
}

// VideosByIDs fetches statistics and content details for up to BatchLimit
// video IDs. An unparsable publishedAt leaves the zero time on the record.
func (c *Client) VideosByIDs(ctx context.Context, ids []string) ([]domain.VideoDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > BatchLimit {
		return nil, fmt.Errorf("videos batch of %d exceeds limit %d", len(ids), BatchLimit)
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.get(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}

	details := make([]domain.VideoDetail, 0, len(resp.Items))
	for _, item := range resp.Items {
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
			c.logger.Warn("Unparsable publishedAt timestamp",
				zap.String("video_id", item.ID),
				zap.String("published_at", item.Snippet.PublishedAt))
		}
		details = append(details, domain.VideoDetail{
			ID:              item.ID,
			Title:           item.Snippet.Title,
			ChannelID:       item.Snippet.ChannelID,
			ChannelTitle:    item.Snippet.ChannelTitle,
			PublishedAt:     publishedAt,
			Views:           parseCount(item.Statistics.ViewCount),
			Likes:           parseCount(item.Statistics.LikeCount),
			Comments:        parseCount(item.Statistics.CommentCount),
			DurationMinutes: domain.ParseISODuration(item.ContentDetails.Duration),
			Tags:            item.Snippet.Tags,
		})
	}
	return details, nil
}

// get performs one API call, records metrics and classifies failures.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, endpoint, "error").Inc()
		// Transport-level failure, retried as transient.
		return &retry.RemoteError{Kind: retry.Transient, Err: fmt.Errorf("%s request: %w", endpoint, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, endpoint, "error").Inc()
		return &retry.RemoteError{Kind: retry.Transient, Err: fmt.Errorf("read %s response: %w", endpoint, err)}
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, endpoint, "error").Inc()
		return c.classifyStatus(endpoint, resp.StatusCode, body)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, endpoint, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(providerName, endpoint).Observe(duration.Seconds())

	if err := json.Unmarshal(body, out); err != nil {
		return &retry.RemoteError{Kind: retry.Fatal, Status: resp.StatusCode,
			Err: fmt.Errorf("decode %s response: %w", endpoint, err)}
	}
	return nil
}

// classifyStatus maps an API error status onto the retry taxonomy: 429 is
// rate-limited, other 4xx are fatal, everything else is transient.
func (c *Client) classifyStatus(endpoint string, status int, body []byte) error {
	var parsed apiErrorResponse
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	kind := retry.Transient
	switch {
	case status == http.StatusTooManyRequests:
		kind = retry.RateLimited
	case status >= 400 && status < 500:
		kind = retry.Fatal
	}

	c.logger.Warn("Provider API error",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.String("message", message))

	err := fmt.Errorf("%s API error: %s", endpoint, message)
	if kind == retry.RateLimited {
		err = fmt.Errorf("%s: %w", err.Error(), domain.ErrRateLimited)
	}
	return &retry.RemoteError{Kind: kind, Status: status, Err: err}
}
