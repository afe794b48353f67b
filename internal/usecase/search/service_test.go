package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/retry"
)

type fakeProvider struct {
	pages []domain.SearchPage
	calls []int // page sizes requested
	err   error
}

func (f *fakeProvider) SearchPage(_ context.Context, _ string, pageSize int, pageToken string, _ time.Time) (domain.SearchPage, error) {
	f.calls = append(f.calls, pageSize)
	if f.err != nil {
		return domain.SearchPage{}, f.err
	}
	idx := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &idx)
	}
	if idx >= len(f.pages) {
		return domain.SearchPage{}, nil
	}
	page := f.pages[idx]
	if idx+1 < len(f.pages) {
		page.NextPageToken = fmt.Sprintf("page-%d", idx+1)
	} else {
		page.NextPageToken = ""
	}
	return page, nil
}

type fakeQuota struct {
	checkErr error
	recorded int64
	checks   int
}

func (f *fakeQuota) Check(context.Context, int64) error { f.checks++; return f.checkErr }
func (f *fakeQuota) Record(cost int64)                  { f.recorded += cost }

type memStore struct {
	data map[string][]byte
	sets int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ cache.Category) {
	m.sets++
	m.data[key] = value
}

func (m *memStore) InvalidateExpired(context.Context) (int, error) { return 0, nil }
func (m *memStore) Stats(context.Context) (cache.Stats, error)    { return cache.Stats{}, nil }
func (m *memStore) Ping(context.Context) error                    { return nil }
func (m *memStore) Close() error                                  { return nil }

func hitsPage(n, offset int) domain.SearchPage {
	page := domain.SearchPage{}
	for i := 0; i < n; i++ {
		page.Hits = append(page.Hits, domain.SearchHit{
			VideoID:   fmt.Sprintf("v%d", offset+i),
			ChannelID: fmt.Sprintf("c%d", offset+i),
		})
	}
	return page
}

func newService(p Provider, q Quota, store cache.Store) *Service {
	return New(p, q, store, retry.New(retry.Config{}), Config{}, zap.NewNop())
}

func TestCollect_PaginatesAcrossPages(t *testing.T) {
	provider := &fakeProvider{pages: []domain.SearchPage{hitsPage(50, 0), hitsPage(50, 50), hitsPage(50, 100)}}
	quota := &fakeQuota{}
	svc := newService(provider, quota, newMemStore())

	hits, err := svc.Collect(context.Background(), "home workout", 110, time.Time{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(hits) != 110 {
		t.Fatalf("expected 110 hits, got %d", len(hits))
	}
	// Last page only needs 10 results.
	if len(provider.calls) != 3 || provider.calls[2] != 10 {
		t.Errorf("expected page sizes [50 50 10], got %v", provider.calls)
	}
	// Positions renumbered globally.
	for i, h := range hits {
		if h.Position != i {
			t.Fatalf("hit %d has position %d", i, h.Position)
		}
	}
	if quota.recorded != 300 {
		t.Errorf("expected 300 units recorded for 3 pages, got %d", quota.recorded)
	}
}

func TestCollect_StopsWhenResultsRunOut(t *testing.T) {
	provider := &fakeProvider{pages: []domain.SearchPage{hitsPage(30, 0)}}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	hits, err := svc.Collect(context.Background(), "obscure query", 200, time.Time{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(hits) != 30 {
		t.Errorf("expected 30 hits, got %d", len(hits))
	}
	if len(provider.calls) != 1 {
		t.Errorf("expected 1 provider call, got %d", len(provider.calls))
	}
}

func TestCollect_CacheShortCircuit(t *testing.T) {
	provider := &fakeProvider{pages: []domain.SearchPage{hitsPage(20, 0)}}
	store := newMemStore()
	svc := newService(provider, &fakeQuota{}, store)

	if _, err := svc.Collect(context.Background(), "cached query", 20, time.Time{}); err != nil {
		t.Fatalf("first Collect: %v", err)
	}
	firstCalls := len(provider.calls)

	hits, err := svc.Collect(context.Background(), "cached query", 20, time.Time{})
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if len(provider.calls) != firstCalls {
		t.Error("second call must be served from cache")
	}
	if len(hits) != 20 {
		t.Errorf("expected 20 cached hits, got %d", len(hits))
	}
	if store.sets != 1 {
		t.Errorf("expected a single cache write, got %d", store.sets)
	}
}

func TestCollect_InvalidKeywordFailsFast(t *testing.T) {
	provider := &fakeProvider{}
	quota := &fakeQuota{}
	svc := newService(provider, quota, newMemStore())

	_, err := svc.Collect(context.Background(), "bad<script>", 50, time.Time{})
	if !errors.Is(err, domain.ErrInvalidKeyword) {
		t.Fatalf("expected ErrInvalidKeyword, got %v", err)
	}
	if len(provider.calls) != 0 || quota.checks != 0 {
		t.Error("validation failure must precede any provider or quota activity")
	}
}

func TestCollect_QuotaRejection(t *testing.T) {
	provider := &fakeProvider{pages: []domain.SearchPage{hitsPage(10, 0)}}
	quota := &fakeQuota{checkErr: domain.ErrQuotaExceeded}
	svc := newService(provider, quota, newMemStore())

	_, err := svc.Collect(context.Background(), "any query", 10, time.Time{})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if len(provider.calls) != 0 {
		t.Error("rejected request must not reach the provider")
	}
}

func TestCollect_CeilingCapsRequest(t *testing.T) {
	pages := make([]domain.SearchPage, 12)
	for i := range pages {
		pages[i] = hitsPage(50, i*50)
	}
	provider := &fakeProvider{pages: pages}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	hits, err := svc.Collect(context.Background(), "huge request", 10000, time.Time{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(hits) != 500 {
		t.Errorf("expected ceiling of 500 hits, got %d", len(hits))
	}
}

func TestCollect_ProviderErrorNotCached(t *testing.T) {
	provider := &fakeProvider{err: &retry.RemoteError{Kind: retry.Fatal, Status: 403, Err: errors.New("key invalid")}}
	store := newMemStore()
	svc := newService(provider, &fakeQuota{}, store)

	if _, err := svc.Collect(context.Background(), "any query", 10, time.Time{}); err == nil {
		t.Fatal("expected provider error")
	}
	if store.sets != 0 {
		t.Error("failed collection must not be cached")
	}
}
