package enrich

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
	videos   map[string]domain.VideoDetail
	channels map[string]domain.Channel

	videoBatches   [][]string
	channelBatches [][]string

	videosErr   error
	channelsErr error
}

func (f *fakeProvider) VideosByIDs(_ context.Context, ids []string) ([]domain.VideoDetail, error) {
	f.videoBatches = append(f.videoBatches, ids)
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	var out []domain.VideoDetail
	for _, id := range ids {
		if d, ok := f.videos[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeProvider) ChannelsByIDs(_ context.Context, ids []string) ([]domain.Channel, error) {
	f.channelBatches = append(f.channelBatches, ids)
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	var out []domain.Channel
	for _, id := range ids {
		if ch, ok := f.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

type fakeQuota struct {
	checkErr error
	recorded int64
}

func (f *fakeQuota) Check(context.Context, int64) error { return f.checkErr }
func (f *fakeQuota) Record(cost int64)                  { f.recorded += cost }

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ cache.Category) {
	m.data[key] = value
}

func (m *memStore) InvalidateExpired(context.Context) (int, error) { return 0, nil }
func (m *memStore) Stats(context.Context) (cache.Stats, error)    { return cache.Stats{}, nil }
func (m *memStore) Ping(context.Context) error                    { return nil }
func (m *memStore) Close() error                                  { return nil }

func detail(id, channelID string, minutes float64) domain.VideoDetail {
	return domain.VideoDetail{
		ID:              id,
		Title:           "title " + id,
		ChannelID:       channelID,
		PublishedAt:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Views:           100,
		DurationMinutes: minutes,
	}
}

func newService(p Provider, q Quota, store cache.Store) *Service {
	return New(p, q, store, retry.New(retry.Config{}), Config{}, zap.NewNop())
}

func TestEnrich_JoinPreservesOrderAndDropsMissing(t *testing.T) {
	provider := &fakeProvider{
		videos: map[string]domain.VideoDetail{
			"v1": detail("v1", "c1", 10),
			"v3": detail("v3", "c2", 12),
		},
		channels: map[string]domain.Channel{
			"c1": {ID: "c1", Subscribers: 5000, Verified: true},
		},
	}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	hits := []domain.SearchHit{
		{VideoID: "v1", ChannelID: "c1", Position: 0},
		{VideoID: "v2", ChannelID: "c9", Position: 1}, // no detail record
		{VideoID: "v3", ChannelID: "c2", Position: 2},
	}

	videos, err := svc.Enrich(context.Background(), hits)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 joined videos, got %d", len(videos))
	}
	if videos[0].ID != "v1" || videos[1].ID != "v3" {
		t.Errorf("join must preserve hit order: %v, %v", videos[0].ID, videos[1].ID)
	}
	if videos[0].Subscribers != 5000 || !videos[0].ChannelVerified {
		t.Errorf("expected channel enrichment on v1: %+v", videos[0])
	}
	// v3's channel was absent from the response: zero-value enrichment.
	if videos[1].Subscribers != 0 || videos[1].ChannelVerified {
		t.Errorf("expected zero enrichment for missing channel: %+v", videos[1])
	}
}

func TestEnrich_ChannelFailureDegrades(t *testing.T) {
	provider := &fakeProvider{
		videos:      map[string]domain.VideoDetail{"v1": detail("v1", "c1", 10)},
		channelsErr: &retry.RemoteError{Kind: retry.Fatal, Status: 403, Err: errors.New("denied")},
	}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	videos, err := svc.Enrich(context.Background(), []domain.SearchHit{{VideoID: "v1", ChannelID: "c1"}})
	if err != nil {
		t.Fatalf("channel failure must not fail the request: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}
	if videos[0].Subscribers != 0 {
		t.Errorf("expected empty enrichment after channel failure: %+v", videos[0])
	}
}

func TestEnrich_DetailFailureSurfaces(t *testing.T) {
	provider := &fakeProvider{
		videosErr: &retry.RemoteError{Kind: retry.Fatal, Status: 400, Err: errors.New("bad request")},
	}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	if _, err := svc.Enrich(context.Background(), []domain.SearchHit{{VideoID: "v1"}}); err == nil {
		t.Fatal("detail failure must surface")
	}
}

func TestEnrich_ChunksBatches(t *testing.T) {
	provider := &fakeProvider{videos: map[string]domain.VideoDetail{}, channels: map[string]domain.Channel{}}
	quota := &fakeQuota{}
	svc := newService(provider, quota, newMemStore())

	hits := make([]domain.SearchHit, 120)
	for i := range hits {
		hits[i] = domain.SearchHit{VideoID: fmt.Sprintf("v%03d", i), ChannelID: "c1"}
	}

	if _, err := svc.Enrich(context.Background(), hits); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(provider.videoBatches) != 3 {
		t.Fatalf("expected 3 video batches for 120 IDs, got %d", len(provider.videoBatches))
	}
	for i, b := range provider.videoBatches {
		if len(b) > 50 {
			t.Errorf("batch %d exceeds provider limit: %d IDs", i, len(b))
		}
	}
	// 3 video batches + 1 channel batch, one unit each.
	if quota.recorded != 4 {
		t.Errorf("expected 4 units recorded, got %d", quota.recorded)
	}
}

func TestEnrich_ChannelCacheIgnoresIDOrder(t *testing.T) {
	provider := &fakeProvider{
		videos: map[string]domain.VideoDetail{
			"v1": detail("v1", "c1", 10),
			"v2": detail("v2", "c2", 10),
		},
		channels: map[string]domain.Channel{
			"c1": {ID: "c1", Subscribers: 100},
			"c2": {ID: "c2", Subscribers: 200},
		},
	}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	first := []domain.SearchHit{{VideoID: "v1", ChannelID: "c1"}, {VideoID: "v2", ChannelID: "c2"}}
	if _, err := svc.Enrich(context.Background(), first); err != nil {
		t.Fatalf("first Enrich: %v", err)
	}

	// Same channel set in reverse order: the channel fetch must hit the cache.
	second := []domain.SearchHit{{VideoID: "v2", ChannelID: "c2"}, {VideoID: "v1", ChannelID: "c1"}}
	videos, err := svc.Enrich(context.Background(), second)
	if err != nil {
		t.Fatalf("second Enrich: %v", err)
	}
	if len(provider.channelBatches) != 1 {
		t.Errorf("expected a single channel fetch across both calls, got %d", len(provider.channelBatches))
	}
	if videos[0].Subscribers != 200 || videos[1].Subscribers != 100 {
		t.Errorf("cached enrichment mismatch: %+v", videos)
	}
}

func TestEnrich_ShortFormClassification(t *testing.T) {
	provider := &fakeProvider{
		videos: map[string]domain.VideoDetail{
			"short": detail("short", "c1", 1.0),
			"long":  detail("long", "c1", 8.5),
		},
		channels: map[string]domain.Channel{},
	}
	svc := newService(provider, &fakeQuota{}, newMemStore())

	videos, err := svc.Enrich(context.Background(), []domain.SearchHit{
		{VideoID: "short", ChannelID: "c1"},
		{VideoID: "long", ChannelID: "c1"},
	})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if !videos[0].IsShort {
		t.Error("1.0-minute video must classify as short-form")
	}
	if videos[1].IsShort {
		t.Error("8.5-minute video must not classify as short-form")
	}
}

func TestEnrich_EmptyHits(t *testing.T) {
	svc := newService(&fakeProvider{}, &fakeQuota{}, newMemStore())
	videos, err := svc.Enrich(context.Background(), nil)
	if err != nil || videos != nil {
		t.Errorf("expected nil/nil for empty hits, got %v/%v", videos, err)
	}
}
