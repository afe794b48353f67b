package domain

import "errors"

var (
	// ErrInvalidKeyword signals a keyword that failed input validation.
	ErrInvalidKeyword = errors.New("invalid keyword")
	// ErrNoReport signals that no analyzable videos were found for a keyword.
	ErrNoReport = errors.New("no analyzable results")
	// ErrQuotaExceeded signals an exhausted provider request budget.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
	// ErrProviderError signals a terminal search provider failure.
	ErrProviderError = errors.New("provider error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
