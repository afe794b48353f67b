// Package redis implements the cache store on Redis via rueidis. TTLs are
// enforced natively by the server, so the maintenance pass has no expired
// rows to sweep and eviction is delegated to the server's own policy. Use it
// when several analyzer instances should share one cache.
package redis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
)

const keyPrefix = "nichescope:cache:"

// Compile-time check: Store implements cache.Store.
var _ cache.Store = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store is a Redis-backed cache store.
type Store struct {
	client rueidis.Client
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// New creates a Redis cache store.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// Get returns the cached value. Server-side expiry makes the read-time
// expiry check implicit: an expired key is already gone.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	cmd := s.client.B().Get().Key(keyPrefix + key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			s.misses.Add(1)
			return nil, false
		}
		s.errs.Add(1)
		s.logger.Warn("Cache read failed, degrading to miss", zap.Error(err))
		return nil, false
	}
	s.hits.Add(1)
	return data, true
}

// Set stores the value with the category TTL applied server-side.
func (s *Store) Set(ctx context.Context, key string, value []byte, category cache.Category) {
	cmd := s.client.B().Set().Key(keyPrefix + key).Value(string(value)).Ex(category.TTL()).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.errs.Add(1)
		s.logger.Warn("Cache write failed", zap.String("category", string(category)), zap.Error(err))
	}
}

// InvalidateExpired is a no-op on this backend: the server expires keys.
func (s *Store) InvalidateExpired(_ context.Context) (int, error) {
	return 0, nil
}

// Stats reports the server key count and the in-process hit rate. TotalBytes
// is not tracked on this backend.
func (s *Store) Stats(ctx context.Context) (cache.Stats, error) {
	cmd := s.client.B().Dbsize().Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		s.errs.Add(1)
		return cache.Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	st := cache.Stats{
		Records: int(n),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Errors:  s.errs.Load(),
	}
	if lookups := st.Hits + st.Misses; lookups > 0 {
		st.HitRate = float64(st.Hits) / float64(lookups)
	}
	return st, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}
