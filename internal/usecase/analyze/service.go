// Package analyze orchestrates the full niche analysis pipeline: search
// collection, enrichment join and competition scoring, plus cache
// administration passthroughs.
package analyze

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/usecase/scoring"
)

// Service runs keyword analyses.
type Service struct {
	searcher Searcher
	enricher Enricher
	store    cache.Store
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an analysis service.
func New(searcher Searcher, enricher Enricher, store cache.Store, logger *zap.Logger) *Service {
	return &Service{searcher: searcher, enricher: enricher, store: store, logger: logger, now: time.Now}
}

// Analyze collects and enriches up to maxResults videos for the keyword and
// computes the competition report. The enriched sample is returned alongside
// the report so callers can feed it into tag or strategy analysis without
// refetching.
func (s *Service) Analyze(ctx context.Context, keyword string, maxResults int, publishedAfter time.Time) (domain.CompetitionReport, []domain.Video, error) {
	hits, err := s.searcher.Collect(ctx, keyword, maxResults, publishedAfter)
	if err != nil {
		return domain.CompetitionReport{}, nil, fmt.Errorf("collect: %w", err)
	}
	if len(hits) == 0 {
		return domain.CompetitionReport{}, nil, domain.ErrNoReport
	}

	videos, err := s.enricher.Enrich(ctx, hits)
	if err != nil {
		return domain.CompetitionReport{}, nil, fmt.Errorf("enrich: %w", err)
	}

	report, err := scoring.BuildReport(videos, s.now())
	if err != nil {
		return domain.CompetitionReport{}, nil, err
	}

	s.logger.Info("Analysis complete",
		zap.String("keyword", keyword),
		zap.Int("videos", report.TotalVideos),
		zap.Int("competition_score", report.CompetitionScore))
	return report, videos, nil
}

// CacheStats reports cache store statistics.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	return s.store.Stats(ctx)
}

// RunMaintenance sweeps expired cache rows and applies the eviction policy.
// It returns the number of expired rows removed.
func (s *Service) RunMaintenance(ctx context.Context) (int, error) {
	removed, err := s.store.InvalidateExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache maintenance: %w", err)
	}
	s.logger.Info("Cache maintenance complete", zap.Int("expired_removed", removed))
	return removed, nil
}
