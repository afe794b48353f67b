package httpapi

import (
	"context"
	"time"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/usecase/health"
)

// Analyzer runs the analysis pipeline and cache administration.
type Analyzer interface {
	Analyze(ctx context.Context, keyword string, maxResults int, publishedAfter time.Time) (domain.CompetitionReport, []domain.Video, error)
	CacheStats(ctx context.Context) (cache.Stats, error)
	RunMaintenance(ctx context.Context) (int, error)
}

// TagAnalyzer scores keywords against a video sample.
type TagAnalyzer interface {
	AnalyzeKeywords(ctx context.Context, keywords []string, sample []domain.Video) ([]domain.TagScore, error)
}

// StrategyBuilder produces a content strategy.
type StrategyBuilder interface {
	Build(ctx context.Context, keyword string, report domain.CompetitionReport, sample []domain.Video) (domain.Strategy, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
