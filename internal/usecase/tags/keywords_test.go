package tags

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	titles := []string{
		"Sourdough bread for beginners",
		"Sourdough starter guide",
		"Why your sourdough bread fails",
	}

	got := ExtractKeywords(titles, 0, 0)
	if len(got) == 0 {
		t.Fatal("expected extracted keywords")
	}
	if got[0] != "sourdough" {
		t.Errorf("most frequent word must come first, got %q", got[0])
	}
	for _, w := range got {
		if w == "for" || w == "why" || w == "your" {
			t.Errorf("stop word %q leaked into extraction", w)
		}
	}
}

func TestExtractKeywords_MinLength(t *testing.T) {
	got := ExtractKeywords([]string{"go ai ml deep learning"}, 4, 10)
	for _, w := range got {
		if len(w) < 4 {
			t.Errorf("word %q shorter than min length", w)
		}
	}
}

func TestExtractKeywords_MaxKeywordsAndDeterminism(t *testing.T) {
	titles := []string{"alpha bravo charlie delta echo foxtrot golf hotel india juliet"}

	first := ExtractKeywords(titles, 3, 5)
	if len(first) != 5 {
		t.Fatalf("expected 5 keywords, got %d", len(first))
	}
	// Equal counts: alphabetical tie-break keeps extraction stable.
	second := ExtractKeywords(titles, 3, 5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not deterministic: %v vs %v", first, second)
	}
	if first[0] != "alpha" {
		t.Errorf("expected alphabetical tie-break, got %v", first)
	}
}

func TestExtractKeywords_Empty(t *testing.T) {
	if got := ExtractKeywords(nil, 0, 0); len(got) != 0 {
		t.Errorf("expected no keywords for no titles, got %v", got)
	}
}
