package tags

import (
	"regexp"
	"sort"
	"strings"
)

// Extraction defaults.
const (
	defaultMinWordLength = 3
	defaultMaxKeywords   = 15
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stopWords are excluded from title keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "you": {}, "your": {},
	"are": {}, "can": {}, "all": {}, "any": {}, "how": {}, "what": {},
	"when": {}, "where": {}, "why": {}, "this": {}, "that": {}, "have": {},
	"had": {}, "will": {}, "been": {}, "were": {}, "was": {}, "is": {},
	"am": {}, "be": {}, "do": {}, "did": {}, "does": {}, "has": {}, "get": {},
	"got": {}, "not": {}, "its": {}, "it": {}, "my": {}, "our": {},
}

// ExtractKeywords returns the most frequent non-stop-words across titles,
// ordered by count descending with alphabetical tie-break so extraction is
// deterministic. Words shorter than minLength are skipped; zero arguments
// select the defaults.
func ExtractKeywords(titles []string, minLength, maxKeywords int) []string {
	if minLength <= 0 {
		minLength = defaultMinWordLength
	}
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}

	counts := make(map[string]int)
	for _, title := range titles {
		for _, word := range wordRe.FindAllString(strings.ToLower(title), -1) {
			if len([]rune(word)) < minLength {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}
