package tags

import "context"

// VolumeEstimator estimates monthly search volume for a keyword. A nil
// estimator means the offline heuristic is the only source.
type VolumeEstimator interface {
	EstimateVolume(ctx context.Context, keyword string) (int64, error)
}
