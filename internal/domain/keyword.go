package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minKeywordLen  = 2
	maxKeywordLen  = 100
	maxKeywordGaps = 10
)

// forbiddenKeywordChars are markup/injection characters rejected before any
// network call.
const forbiddenKeywordChars = "<>\"'[]{}|\\`"

// ValidateKeyword checks a search keyword before any I/O happens.
// Returns ErrInvalidKeyword (wrapped with the reason) on failure.
func ValidateKeyword(keyword string) error {
	k := strings.TrimSpace(keyword)
	if n := utf8.RuneCountInString(k); n < minKeywordLen || n > maxKeywordLen {
		return fmt.Errorf("%w: length must be %d-%d characters", ErrInvalidKeyword, minKeywordLen, maxKeywordLen)
	}
	if strings.Count(k, " ") > maxKeywordGaps {
		return fmt.Errorf("%w: too many words", ErrInvalidKeyword)
	}
	if strings.ContainsAny(k, forbiddenKeywordChars) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidKeyword)
	}
	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: contains control characters", ErrInvalidKeyword)
		}
	}
	return nil
}

// TitleMatchPolicy decides whether a title counts as optimized for a keyword.
// Kept as a named, swappable policy so the heuristic can be tested and
// replaced independently of the scorer.
type TitleMatchPolicy func(title, keyword string) bool

// MatchSubstring reports whether the keyword appears verbatim in the title,
// case-insensitively. This is the default policy.
func MatchSubstring(title, keyword string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(keyword))
}

// MatchAnyToken reports whether any whitespace-separated keyword token
// appears in the title, case-insensitively.
func MatchAnyToken(title, keyword string) bool {
	lt := strings.ToLower(title)
	for _, tok := range strings.Fields(strings.ToLower(keyword)) {
		if strings.Contains(lt, tok) {
			return true
		}
	}
	return false
}
