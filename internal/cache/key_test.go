package cache

import "testing"

func TestKey_StableForEquivalentStructuredParams(t *testing.T) {
	a := Key("channels.v1", SortedIDs([]string{"b", "a", "c"}))
	b := Key("channels.v1", SortedIDs([]string{"a", "b", "c"}))
	if a != b {
		t.Errorf("equivalent id sets must produce the same key: %s != %s", a, b)
	}
	c := Key("channels.v1", SortedIDs([]string{"a", "b", "c", "a", ""}))
	if a != c {
		t.Errorf("duplicates and empties must not change the key: %s != %s", a, c)
	}
}

func TestKey_MapOrderIndependent(t *testing.T) {
	// encoding/json sorts map keys, so insertion order is irrelevant.
	m1 := map[string]int{"x": 1, "y": 2, "z": 3}
	m2 := map[string]int{"z": 3, "y": 2, "x": 1}
	if Key("op", m1) != Key("op", m2) {
		t.Error("map parameter order must not affect the key")
	}
}

func TestKey_DistinguishesOpAndParams(t *testing.T) {
	if Key("search.v1", "golang", 100) == Key("search.v1", "golang", 200) {
		t.Error("different params must yield different keys")
	}
	if Key("search.v1", "golang", 100) == Key("search.v2", "golang", 100) {
		t.Error("different op names must yield different keys")
	}
}

func TestKey_NilParam(t *testing.T) {
	if Key("op", nil) == Key("op", "") {
		t.Error("nil and empty string must not collide")
	}
}

func TestCategoryTTL(t *testing.T) {
	if CategoryChannels.TTL() <= CategorySearch.TTL() {
		t.Error("channel enrichment must outlive search results")
	}
	if got := Category("unknown").TTL(); got != defaultTTL {
		t.Errorf("unknown category must use default TTL, got %v", got)
	}
}
