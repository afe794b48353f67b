// Package search implements keyword search collection: validation, cache
// lookup, quota-gated pagination against the provider and renumbering of
// hits into one relevance-ordered list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
	"github.com/kailas-cloud/nichescope/internal/usecase/quota"
)

// Config holds collection limits.
type Config struct {
	// MaxResultsCeiling caps any single request, whatever the caller asks for.
	MaxResultsCeiling int
	// PageSize is the per-page fetch size, at most the provider limit of 50.
	PageSize int
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.MaxResultsCeiling <= 0 {
		c.MaxResultsCeiling = 500
	}
	if c.PageSize <= 0 || c.PageSize > 50 {
		c.PageSize = 50
	}
}

// Service collects search hits for a keyword.
type Service struct {
	provider Provider
	quota    Quota
	store    cache.Store
	exec     *retry.Executor
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service.
func New(provider Provider, quota Quota, store cache.Store, exec *retry.Executor, cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{provider: provider, quota: quota, store: store, exec: exec, cfg: cfg, logger: logger}
}

// Collect returns up to maxResults hits for the keyword in provider relevance
// order, paginating until the budget is filled or results run out. Only a
// complete collection is cached; partial pages are never written back.
func (s *Service) Collect(ctx context.Context, keyword string, maxResults int, publishedAfter time.Time) ([]domain.SearchHit, error) {
	if err := domain.ValidateKeyword(keyword); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = s.cfg.PageSize
	}
	if maxResults > s.cfg.MaxResultsCeiling {
		maxResults = s.cfg.MaxResultsCeiling
	}

	key := cache.Key("search.v1", keyword, maxResults, publishedAfter.UTC().Unix())
	if data, ok := s.store.Get(ctx, key); ok {
		var hits []domain.SearchHit
		if err := json.Unmarshal(data, &hits); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return hits, nil
		}
		s.logger.Warn("Corrupt cached search entry, refetching", zap.String("key", key))
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	var hits []domain.SearchHit
	pageToken := ""
	for len(hits) < maxResults {
		if err := s.quota.Check(ctx, quota.CostSearchPage); err != nil {
			return nil, err
		}

		pageSize := s.cfg.PageSize
		if remaining := maxResults - len(hits); remaining < pageSize {
			pageSize = remaining
		}

		var page domain.SearchPage
		err := s.exec.Do(ctx, func(ctx context.Context) error {
			var fetchErr error
			page, fetchErr = s.provider.SearchPage(ctx, keyword, pageSize, pageToken, publishedAfter)
			return fetchErr
		})
		s.quota.Record(quota.CostSearchPage)
		if err != nil {
			return nil, fmt.Errorf("search page: %w", err)
		}

		// Renumber positions across pages so ordering survives the join.
		for _, hit := range page.Hits {
			hit.Position = len(hits)
			hits = append(hits, hit)
			if len(hits) == maxResults {
				break
			}
		}

		if page.NextPageToken == "" || len(page.Hits) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}

	if data, err := json.Marshal(hits); err == nil {
		s.store.Set(ctx, key, data, cache.CategorySearch)
	}

	s.logger.Info("Search collection complete",
		zap.String("keyword", keyword),
		zap.Int("hits", len(hits)))
	return hits, nil
}
