package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	"github.com/kailas-cloud/nichescope/internal/domain"
)

type fakeSearcher struct {
	hits []domain.SearchHit
	err  error
}

func (f *fakeSearcher) Collect(context.Context, string, int, time.Time) ([]domain.SearchHit, error) {
	return f.hits, f.err
}

type fakeEnricher struct {
	videos []domain.Video
	err    error
}

func (f *fakeEnricher) Enrich(context.Context, []domain.SearchHit) ([]domain.Video, error) {
	return f.videos, f.err
}

type fakeStore struct {
	stats      cache.Stats
	removed    int
	maintErr   error
	maintCalls int
}

func (f *fakeStore) Get(context.Context, string) ([]byte, bool)        { return nil, false }
func (f *fakeStore) Set(context.Context, string, []byte, cache.Category) {}
func (f *fakeStore) InvalidateExpired(context.Context) (int, error) {
	f.maintCalls++
	return f.removed, f.maintErr
}
func (f *fakeStore) Stats(context.Context) (cache.Stats, error) { return f.stats, nil }
func (f *fakeStore) Ping(context.Context) error                 { return nil }
func (f *fakeStore) Close() error                               { return nil }

func TestAnalyze(t *testing.T) {
	searcher := &fakeSearcher{hits: []domain.SearchHit{{VideoID: "v1"}}}
	enricher := &fakeEnricher{videos: []domain.Video{
		{ID: "v1", ChannelID: "c1", Views: 500, PublishedAt: time.Now().AddDate(0, -2, 0)},
	}}
	svc := New(searcher, enricher, &fakeStore{}, zap.NewNop())

	report, videos, err := svc.Analyze(context.Background(), "niche", 50, time.Time{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.TotalVideos != 1 {
		t.Errorf("TotalVideos = %d, want 1", report.TotalVideos)
	}
	if len(videos) != 1 {
		t.Errorf("expected the enriched sample returned, got %d videos", len(videos))
	}
	if report.CompetitionLevel == "" {
		t.Error("expected a competition label")
	}
}

func TestAnalyze_NoHits(t *testing.T) {
	svc := New(&fakeSearcher{}, &fakeEnricher{}, &fakeStore{}, zap.NewNop())
	_, _, err := svc.Analyze(context.Background(), "niche", 50, time.Time{})
	if !errors.Is(err, domain.ErrNoReport) {
		t.Fatalf("expected ErrNoReport for empty search, got %v", err)
	}
}

func TestAnalyze_SearchErrorPropagates(t *testing.T) {
	searcher := &fakeSearcher{err: domain.ErrQuotaExceeded}
	svc := New(searcher, &fakeEnricher{}, &fakeStore{}, zap.NewNop())
	_, _, err := svc.Analyze(context.Background(), "niche", 50, time.Time{})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestAnalyze_EnrichErrorPropagates(t *testing.T) {
	searcher := &fakeSearcher{hits: []domain.SearchHit{{VideoID: "v1"}}}
	enricher := &fakeEnricher{err: errors.New("boom")}
	svc := New(searcher, enricher, &fakeStore{}, zap.NewNop())
	if _, _, err := svc.Analyze(context.Background(), "niche", 50, time.Time{}); err == nil {
		t.Fatal("expected enrich error to propagate")
	}
}

func TestAnalyze_AllRecordsDropped(t *testing.T) {
	searcher := &fakeSearcher{hits: []domain.SearchHit{{VideoID: "v1"}}}
	enricher := &fakeEnricher{videos: []domain.Video{{ID: "v1"}}} // zero PublishedAt
	svc := New(searcher, enricher, &fakeStore{}, zap.NewNop())
	_, _, err := svc.Analyze(context.Background(), "niche", 50, time.Time{})
	if !errors.Is(err, domain.ErrNoReport) {
		t.Fatalf("expected ErrNoReport when scoring drops everything, got %v", err)
	}
}

func TestCacheAdministration(t *testing.T) {
	store := &fakeStore{stats: cache.Stats{Records: 7, Hits: 3}, removed: 4}
	svc := New(&fakeSearcher{}, &fakeEnricher{}, store, zap.NewNop())

	stats, err := svc.CacheStats(context.Background())
	if err != nil || stats.Records != 7 {
		t.Errorf("CacheStats = %+v, %v", stats, err)
	}

	removed, err := svc.RunMaintenance(context.Background())
	if err != nil || removed != 4 {
		t.Errorf("RunMaintenance = %d, %v", removed, err)
	}
	if store.maintCalls != 1 {
		t.Errorf("expected 1 maintenance call, got %d", store.maintCalls)
	}
}
