package tags

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
)

// Config holds batch analysis settings.
type Config struct {
	// Concurrency caps in-flight keyword analyses.
	Concurrency int
	// MinSpacing is the minimum interval between remote estimator
	// dispatches. Cached and heuristic lookups are never spaced.
	MinSpacing time.Duration
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.MinSpacing <= 0 {
		c.MinSpacing = 700 * time.Millisecond
	}
}

// Service scores keywords against a video sample.
type Service struct {
	estimator VolumeEstimator // nil = offline heuristic only
	store     cache.Store
	exec      *retry.Executor
	cfg       Config
	match     domain.TitleMatchPolicy
	logger    *zap.Logger

	dispatchMu   sync.Mutex
	lastDispatch time.Time
}

// New creates a tag analysis service. A nil estimator disables remote
// volume lookups.
func New(estimator VolumeEstimator, store cache.Store, exec *retry.Executor, cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{
		estimator: estimator,
		store:     store,
		exec:      exec,
		cfg:       cfg,
		match:     domain.MatchSubstring,
		logger:    logger,
	}
}

// AnalyzeKeywords scores each keyword independently against the sample and
// returns the results sorted by overall score descending. Invalid keywords
// and per-keyword failures are skipped, not fatal: a partial tag list is
// still useful.
func (s *Service) AnalyzeKeywords(ctx context.Context, keywords []string, sample []domain.Video) ([]domain.TagScore, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scores []domain.TagScore
	)
	sem := make(chan struct{}, s.cfg.Concurrency)

	for _, keyword := range keywords {
		if err := domain.ValidateKeyword(keyword); err != nil {
			s.logger.Warn("Skipping invalid keyword", zap.String("keyword", keyword), zap.Error(err))
			continue
		}

		wg.Add(1)
		go func(keyword string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			score, err := s.analyzeOne(ctx, keyword, sample)
			if err != nil {
				s.logger.Warn("Keyword analysis skipped", zap.String("keyword", keyword), zap.Error(err))
				return
			}
			mu.Lock()
			scores = append(scores, score)
			mu.Unlock()
		}(keyword)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].OverallScore != scores[j].OverallScore {
			return scores[i].OverallScore > scores[j].OverallScore
		}
		return scores[i].Keyword < scores[j].Keyword
	})
	return scores, nil
}

func (s *Service) analyzeOne(ctx context.Context, keyword string, sample []domain.Video) (domain.TagScore, error) {
	key := cache.Key("tags.v1", keyword, sampleIDs(sample))
	if data, ok := s.store.Get(ctx, key); ok {
		var cached domain.TagScore
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	volume := s.estimateVolume(ctx, keyword)
	score := CalculateScores(keyword, BuildSignals(keyword, sample, s.match), volume)

	if data, err := json.Marshal(score); err == nil {
		s.store.Set(ctx, key, data, cache.CategoryTags)
	}
	return score, ctx.Err()
}

// sampleIDs identifies a sample by its sorted video-ID set. The signals a
// score is built from depend on the sample's contents, so the cache key must
// too: the same keyword scored against two different samples never shares an
// entry.
func sampleIDs(sample []domain.Video) []string {
	ids := make([]string, 0, len(sample))
	for _, v := range sample {
		ids = append(ids, v.ID)
	}
	return cache.SortedIDs(ids)
}

// estimateVolume asks the remote estimator when configured, spacing
// dispatches, and falls back to the offline heuristic on any failure.
func (s *Service) estimateVolume(ctx context.Context, keyword string) int64 {
	if s.estimator == nil {
		return EstimateVolumeBasic(keyword)
	}

	s.waitDispatchSlot(ctx)

	var volume int64
	err := s.exec.Do(ctx, func(ctx context.Context) error {
		var estErr error
		volume, estErr = s.estimator.EstimateVolume(ctx, keyword)
		return estErr
	})
	if err != nil {
		s.logger.Warn("Remote volume estimate failed, using heuristic",
			zap.String("keyword", keyword), zap.Error(err))
		return EstimateVolumeBasic(keyword)
	}
	return volume
}

// waitDispatchSlot enforces the minimum spacing between remote dispatches.
func (s *Service) waitDispatchSlot(ctx context.Context) {
	s.dispatchMu.Lock()
	now := time.Now()
	next := s.lastDispatch.Add(s.cfg.MinSpacing)
	if next.Before(now) {
		next = now
	}
	s.lastDispatch = next
	s.dispatchMu.Unlock()

	if wait := time.Until(next); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
}
