package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// Provider fetches one page of raw search results.
type Provider interface {
	SearchPage(ctx context.Context, query string, pageSize int, pageToken string, publishedAfter time.Time) (domain.SearchPage, error)
}

// Quota gates and records provider unit spend.
type Quota interface {
	Check(ctx context.Context, cost int64) error
	Record(cost int64)
}
