// Package retry implements the backoff executor wrapped around every remote
// provider call. It is pure control flow: classification of an error into
// fatal / transient / rate-limited is carried by the error itself, never by
// message text matching.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a remote failure.
type Kind int

const (
	// Transient failures (5xx-equivalent, transport timeouts) are retried.
	Transient Kind = iota
	// Fatal failures (bad request, permission denial) are never retried.
	Fatal
	// RateLimited failures (quota denial) are never retried either; they
	// surface immediately so the caller can back off at a higher level.
	RateLimited
)

// RemoteError carries the provider status classification for a failed call.
type RemoteError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call failed (status %d): %v", e.Status, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ClassifyErr returns the Kind of err. Errors that are not RemoteError are
// treated as transient (transport-level failures).
func ClassifyErr(err error) Kind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return Transient
}

// Config holds retry knobs, passed in at construction time.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
}

// Executor retries an operation with exponential backoff.
type Executor struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor with the given config.
func New(cfg Config) *Executor {
	cfg.ApplyDefaults()
	return &Executor{cfg: cfg, sleep: sleepCtx}
}

// Do runs op, retrying transient failures with baseDelay·2^attempt backoff
// up to MaxAttempts. Fatal and rate-limited errors surface immediately.
// The backoff sleep is cancellable via ctx.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		switch ClassifyErr(err) {
		case Fatal, RateLimited:
			return err
		case Transient:
			if attempt == e.cfg.MaxAttempts-1 {
				return lastErr
			}
			delay := e.cfg.BaseDelay << uint(attempt)
			if err := e.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
