// Package enrich turns raw search hits into fully joined video records:
// batched detail and channel fetches, a cached channel map, and an
// order-preserving three-way join.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
	"github.com/kailas-cloud/nichescope/internal/usecase/quota"
)

// Config holds batching limits.
type Config struct {
	// ChunkSize is the per-call ID batch size, at most the provider limit of 50.
	ChunkSize int
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize <= 0 || c.ChunkSize > 50 {
		c.ChunkSize = 50
	}
}

// Service enriches search hits into joined video records.
type Service struct {
	provider Provider
	quota    Quota
	store    cache.Store
	exec     *retry.Executor
	cfg      Config
	logger   *zap.Logger
}

// New creates an enrichment service.
func New(provider Provider, quota Quota, store cache.Store, exec *retry.Executor, cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{provider: provider, quota: quota, store: store, exec: exec, cfg: cfg, logger: logger}
}

// Enrich joins hits with their video details and channel statistics,
// preserving hit order. Hits whose detail record is missing are dropped;
// a failed channel fetch degrades to empty enrichment rather than failing
// the request.
func (s *Service) Enrich(ctx context.Context, hits []domain.SearchHit) ([]domain.Video, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	videoIDs := make([]string, 0, len(hits))
	channelIDSet := make(map[string]struct{})
	for _, h := range hits {
		videoIDs = append(videoIDs, h.VideoID)
		if h.ChannelID != "" {
			channelIDSet[h.ChannelID] = struct{}{}
		}
	}
	channelIDs := make([]string, 0, len(channelIDSet))
	for id := range channelIDSet {
		channelIDs = append(channelIDs, id)
	}

	var (
		wg       sync.WaitGroup
		details  map[string]domain.VideoDetail
		channels map[string]domain.Channel
		detErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		details, detErr = s.fetchDetails(ctx, videoIDs)
	}()
	go func() {
		defer wg.Done()
		channels = s.fetchChannels(ctx, channelIDs)
	}()
	wg.Wait()

	if detErr != nil {
		return nil, fmt.Errorf("fetch video details: %w", detErr)
	}

	videos := make([]domain.Video, 0, len(hits))
	for _, h := range hits {
		d, ok := details[h.VideoID]
		if !ok {
			continue
		}
		ch := channels[d.ChannelID]
		videos = append(videos, domain.Video{
			ID:                d.ID,
			Title:             d.Title,
			ChannelID:         d.ChannelID,
			ChannelTitle:      d.ChannelTitle,
			Subscribers:       ch.Subscribers,
			ChannelTotalViews: ch.TotalViews,
			ChannelVideoCount: ch.VideoCount,
			ChannelVerified:   ch.Verified,
			PublishedAt:       d.PublishedAt,
			Views:             d.Views,
			Likes:             d.Likes,
			Comments:          d.Comments,
			DurationMinutes:   d.DurationMinutes,
			IsShort:           d.DurationMinutes <= domain.ShortFormThresholdMinutes,
			Tags:              d.Tags,
		})
	}
	return videos, nil
}

// fetchDetails fetches video records in chunks. Detail failures surface:
// without statistics there is nothing to score.
func (s *Service) fetchDetails(ctx context.Context, ids []string) (map[string]domain.VideoDetail, error) {
	details := make(map[string]domain.VideoDetail, len(ids))
	for _, chunk := range chunkIDs(ids, s.cfg.ChunkSize) {
		if err := s.quota.Check(ctx, quota.CostBatchList); err != nil {
			return nil, err
		}
		var batch []domain.VideoDetail
		err := s.exec.Do(ctx, func(ctx context.Context) error {
			var fetchErr error
			batch, fetchErr = s.provider.VideosByIDs(ctx, chunk)
			return fetchErr
		})
		s.quota.Record(quota.CostBatchList)
		if err != nil {
			return nil, err
		}
		for _, d := range batch {
			details[d.ID] = d
		}
	}
	return details, nil
}

// fetchChannels returns the channel map, served from cache when possible.
// Failures degrade to an empty map: enrichment is additive, not required.
func (s *Service) fetchChannels(ctx context.Context, ids []string) map[string]domain.Channel {
	if len(ids) == 0 {
		return nil
	}

	sorted := cache.SortedIDs(ids)
	key := cache.Key("channels.v1", sorted)
	if data, ok := s.store.Get(ctx, key); ok {
		var cached map[string]domain.Channel
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	channels := make(map[string]domain.Channel, len(sorted))
	for _, chunk := range chunkIDs(sorted, s.cfg.ChunkSize) {
		if err := s.quota.Check(ctx, quota.CostBatchList); err != nil {
			s.logger.Warn("Channel enrichment skipped", zap.Error(err))
			return nil
		}
		var batch []domain.Channel
		err := s.exec.Do(ctx, func(ctx context.Context) error {
			var fetchErr error
			batch, fetchErr = s.provider.ChannelsByIDs(ctx, chunk)
			return fetchErr
		})
		s.quota.Record(quota.CostBatchList)
		if err != nil {
			s.logger.Warn("Channel enrichment degraded to empty",
				zap.Int("channels", len(ids)), zap.Error(err))
			return nil
		}
		for _, ch := range batch {
			channels[ch.ID] = ch
		}
	}

	if data, err := json.Marshal(channels); err == nil {
		s.store.Set(ctx, key, data, cache.CategoryChannels)
	}
	return channels
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
