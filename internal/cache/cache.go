// Package cache defines the persistent analysis cache contract. The cache is
// an optimization, never a correctness dependency: every backend failure
// degrades to a miss or a no-op and is counted, not propagated.
package cache

import (
	"context"
	"time"
)

// Category selects the TTL for an entry. Category, not caller intent,
// decides freshness.
type Category string

const (
	// CategorySearch holds full search result lists.
	CategorySearch Category = "search-results"
	// CategoryChannels holds channel enrichment maps.
	CategoryChannels Category = "channel-enrichment"
	// CategoryTrends holds trend snapshots (fetched by an external collaborator).
	CategoryTrends Category = "trend-series"
	// CategoryTags holds scored tag records.
	CategoryTags Category = "scored-tags"
	// CategoryStrategy holds generated strategy text.
	CategoryStrategy Category = "generated-strategy"
)

// ttlTable is the static category → TTL mapping.
var ttlTable = map[Category]time.Duration{
	CategorySearch:   4 * time.Hour,
	CategoryChannels: 7 * 24 * time.Hour,
	CategoryTrends:   8 * time.Hour,
	CategoryTags:     6 * time.Hour,
	CategoryStrategy: 24 * time.Hour,
}

// defaultTTL applies to unknown categories.
const defaultTTL = time.Hour

// TTL returns the static time-to-live for the category.
func (c Category) TTL() time.Duration {
	if ttl, ok := ttlTable[c]; ok {
		return ttl
	}
	return defaultTTL
}

// Stats reports cache store health and efficiency.
type Stats struct {
	Records    int     `json:"records"`
	TotalBytes int64   `json:"total_bytes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Errors     int64   `json:"errors"`
	HitRate    float64 `json:"hit_rate"`
}

// Store is the persistent cache contract. Implementations serialize all
// operations internally; callers need no external locking.
//
// Get returns (nil, false) on miss; an expired entry is deleted and treated
// as a miss in the same operation. Set overwrites unconditionally.
// InvalidateExpired deletes expired rows and, when the remaining row count
// exceeds the store ceiling, additionally evicts the least-used decile
// (access_count ascending, created_at ascending). It returns the number of
// expired rows removed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, category Category)
	InvalidateExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
