// Package quota implements the provider request-unit budget. Counters are
// estimates of what the provider will bill, kept for the process lifetime:
// the provider resets its own quota on its own clock, so a local calendar
// reset would only disguise overspend.
package quota

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/metrics"
)

// Unit costs per provider operation.
const (
	// CostSearchPage is charged per search page, regardless of page size.
	CostSearchPage int64 = 100
	// CostBatchList is charged per channels/videos list call, regardless of
	// how many IDs the batch carries.
	CostBatchList int64 = 1
)

// Action defines behavior when the unit budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request.
	ActionReject Action = "reject"
)

// warnThreshold is the used/limit ratio above which every check logs.
const warnThreshold = 0.9

// Tracker is an in-memory request-unit tracker. The hot path (Check) takes
// no round-trips.
type Tracker struct {
	mu     sync.Mutex
	used   int64
	limit  int64 // 0 = unlimited
	action Action
	warned bool
	logger *zap.Logger
}

// NewTracker creates a tracker with the given unit limit.
func NewTracker(limit int64, action Action, logger *zap.Logger) *Tracker {
	if action == "" {
		action = ActionWarn
	}
	return &Tracker{limit: limit, action: action, logger: logger}
}

// Check verifies the budget allows cost more units. Above the warn threshold
// it logs; at the limit it rejects only under ActionReject.
func (t *Tracker) Check(_ context.Context, cost int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit <= 0 {
		return nil
	}

	projected := t.used + cost
	if float64(projected) >= float64(t.limit)*warnThreshold && !t.warned {
		t.warned = true
		t.logger.Warn("Provider quota nearing limit",
			zap.Int64("used", t.used),
			zap.Int64("limit", t.limit))
	}

	if projected <= t.limit {
		return nil
	}

	if t.action == ActionReject {
		return domain.ErrQuotaExceeded
	}

	t.logger.Warn("Provider quota exceeded",
		zap.Int64("used", t.used),
		zap.Int64("limit", t.limit))
	return nil
}

// Record registers consumed units after a request and updates the gauges.
func (t *Tracker) Record(cost int64) {
	t.mu.Lock()
	t.used += cost
	used := t.used
	remaining := int64(-1)
	if t.limit > 0 {
		remaining = t.limit - used
		if remaining < 0 {
			remaining = 0
		}
	}
	t.mu.Unlock()

	metrics.QuotaUnitsUsed.Set(float64(used))
	metrics.QuotaUnitsRemaining.Set(float64(remaining))
}

// Used returns units consumed this process lifetime.
func (t *Tracker) Used() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

// Remaining returns units left in the budget (-1 if unlimited).
func (t *Tracker) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limit <= 0 {
		return -1
	}
	remaining := t.limit - t.used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limit returns the configured unit cap.
func (t *Tracker) Limit() int64 { return t.limit }
