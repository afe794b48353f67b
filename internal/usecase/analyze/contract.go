package analyze

import (
	"context"
	"time"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// Searcher collects relevance-ordered search hits for a keyword.
type Searcher interface {
	Collect(ctx context.Context, keyword string, maxResults int, publishedAfter time.Time) ([]domain.SearchHit, error)
}

// Enricher joins hits into full video records.
type Enricher interface {
	Enrich(ctx context.Context, hits []domain.SearchHit) ([]domain.Video, error)
}
