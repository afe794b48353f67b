// Package openai implements the AI content strategist on an OpenAI-compatible
// chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
)

const providerName = "openai"

const systemPrompt = "You are a YouTube niche strategist. Given a keyword and " +
	"competition metrics, produce a concise content strategy: 3 video angles, " +
	"a title formula, and an upload cadence recommendation. Plain text, no markdown headers."

// Config holds the strategist settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// Strategist generates content strategies via a chat completion model.
type Strategist struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewStrategist creates an OpenAI-compatible strategist.
func NewStrategist(cfg *Config) *Strategist {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Strategist{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Generate produces a strategy for the keyword, grounding the prompt in the
// competition report so the model reasons over real numbers.
func (s *Strategist) Generate(ctx context.Context, keyword string, report domain.CompetitionReport) (domain.Strategy, error) {
	prompt := fmt.Sprintf(
		"Keyword: %q\nCompetition level: %s (score %d/10)\nOpportunity rating: %d/100\n"+
			"Videos analyzed: %d, average views: %.0f, median views: %.0f\n"+
			"Uploads last week: %d, engagement rate: %.2f%%, shorts share: %.1f%%",
		keyword, report.CompetitionLevel, report.CompetitionScore, report.OpportunityRating,
		report.TotalVideos, report.AvgViews, report.MedianViews,
		report.VideosLastWeek, report.EngagementRate, report.ShortsPercentage,
	)

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "strategy", "error").Inc()
		return domain.Strategy{}, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "strategy", "error").Inc()
		return domain.Strategy{}, &retry.RemoteError{Kind: retry.Transient,
			Err: fmt.Errorf("empty completion response: %w", domain.ErrProviderError)}
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "strategy", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(providerName, "strategy").Observe(duration.Seconds())

	return domain.Strategy{
		Keyword:     keyword,
		Text:        resp.Choices[0].Message.Content,
		Source:      domain.StrategySourceAI,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// classifyAPIError maps a completion API failure onto the retry taxonomy.
func classifyAPIError(err error) error {
	status := 0
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.HTTPStatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	}

	kind := retry.Transient
	switch {
	case status == 429:
		kind = retry.RateLimited
	case status >= 400 && status < 500:
		kind = retry.Fatal
	}
	return &retry.RemoteError{Kind: kind, Status: status,
		Err: fmt.Errorf("completion request failed: %v: %w", err, domain.ErrProviderError)}
}
