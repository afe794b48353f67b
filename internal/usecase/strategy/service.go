// Package strategy produces content strategies for a keyword: AI-generated
// when a generator is configured, rule-based otherwise. Only AI output is
// cached; the rule builder is deterministic and free.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
	"github.com/kailas-cloud/nichescope/internal/usecase/tags"
)

// Service builds content strategies.
type Service struct {
	gen    Generator // nil = rule-based only
	store  cache.Store
	exec   *retry.Executor
	model  string // part of the cache key so a model switch invalidates
	logger *zap.Logger
	now    func() time.Time
}

// New creates a strategy service. A nil generator disables AI generation.
func New(gen Generator, store cache.Store, exec *retry.Executor, model string, logger *zap.Logger) *Service {
	return &Service{gen: gen, store: store, exec: exec, model: model, logger: logger, now: time.Now}
}

// Build returns a strategy for the keyword. AI output is cached per
// (keyword, model, report); a failed generation degrades to the rule-based
// strategy instead of failing the request.
func (s *Service) Build(ctx context.Context, keyword string, report domain.CompetitionReport, sample []domain.Video) (domain.Strategy, error) {
	if err := domain.ValidateKeyword(keyword); err != nil {
		return domain.Strategy{}, err
	}

	if s.gen == nil {
		return s.ruleBased(keyword, report, sample), nil
	}

	key := cache.Key("strategy.v1", keyword, s.model, report)
	if data, ok := s.store.Get(ctx, key); ok {
		var cached domain.Strategy
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	var strat domain.Strategy
	err := s.exec.Do(ctx, func(ctx context.Context) error {
		var genErr error
		strat, genErr = s.gen.Generate(ctx, keyword, report)
		return genErr
	})
	if err != nil {
		s.logger.Warn("AI strategy failed, using rule-based fallback",
			zap.String("keyword", keyword), zap.Error(err))
		return s.ruleBased(keyword, report, sample), nil
	}

	if data, err := json.Marshal(strat); err == nil {
		s.store.Set(ctx, key, data, cache.CategoryStrategy)
	}
	return strat, nil
}

// ruleBased composes a deterministic strategy from the report and the
// sample's dominant title words.
func (s *Service) ruleBased(keyword string, report domain.CompetitionReport, sample []domain.Video) domain.Strategy {
	titles := make([]string, 0, len(sample))
	for _, v := range sample {
		titles = append(titles, v.Title)
	}
	topWords := tags.ExtractKeywords(titles, 0, 5)

	var b strings.Builder
	fmt.Fprintf(&b, "Niche assessment for %q: %s (opportunity %d/100).\n",
		keyword, report.CompetitionLevel, report.OpportunityRating)

	switch {
	case report.CompetitionScore >= 7:
		b.WriteString("Weak competition: publish consistently and claim the niche before it crowds. ")
		b.WriteString("Target 2-3 uploads per week.\n")
	case report.CompetitionScore >= 4:
		b.WriteString("Moderate competition: differentiate on depth and production quality. ")
		b.WriteString("One strong upload per week beats daily filler.\n")
	default:
		b.WriteString("Heavy competition: avoid head-on keywords, target long-tail variations ")
		b.WriteString("and underserved subtopics.\n")
	}

	if report.ShortsPercentage >= 50 {
		b.WriteString("Short-form dominates this niche; lead with shorts and funnel viewers to long-form.\n")
	} else {
		fmt.Fprintf(&b, "Long-form dominates (shorts %.0f%%); invest in thorough tutorials.\n",
			report.ShortsPercentage)
	}

	if len(topWords) > 0 {
		fmt.Fprintf(&b, "Work these recurring title words into your own: %s.",
			strings.Join(topWords, ", "))
	}

	return domain.Strategy{
		Keyword:     keyword,
		Text:        b.String(),
		Source:      domain.StrategySourceRules,
		GeneratedAt: s.now().UTC(),
	}
}
