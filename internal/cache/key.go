package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key derives a cache key from a logical operation name and its parameters.
// Parameters are serialized through canonical, key-sorted JSON before
// hashing, so two calls with equivalent-but-differently-ordered structured
// arguments collide correctly. Ad-hoc string concatenation of structured
// parameters fragments the cache and is deliberately not used here.
func Key(op string, params ...any) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, canonical(p))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// SortedIDs returns a sorted, de-duplicated copy of ids with empties removed,
// for order-independent set-valued cache keys.
func SortedIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// canonical serializes a parameter type-stably. encoding/json already emits
// map keys in sorted order; slice order is the caller's contract (sets go
// through SortedIDs first).
func canonical(p any) string {
	if p == nil {
		return "null"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(b)
}
