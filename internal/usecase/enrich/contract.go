package enrich

import (
	"context"

	"github.com/kailas-cloud/nichescope/internal/domain"
)

// Provider fetches batched channel and video records.
type Provider interface {
	ChannelsByIDs(ctx context.Context, ids []string) ([]domain.Channel, error)
	VideosByIDs(ctx context.Context, ids []string) ([]domain.VideoDetail, error)
}

// Quota gates and records provider unit spend.
type Quota interface {
	Check(ctx context.Context, cost int64) error
	Record(cost int64)
}
