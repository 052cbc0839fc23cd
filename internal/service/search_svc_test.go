package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/youtube"
)

// fakeClient serves a fixed channel universe and records calls.
type fakeClient struct {
	mu       sync.Mutex
	channels []fixtureChannel

	searchErr  error
	detailsErr error
	uploadErr  error

	searchCalls  int
	detailsCalls int
	uploadCalls  int
}

type fixtureChannel struct {
	id          string
	title       string
	subscribers int64
	views       int64
	videos      int64
	daysAgo     int // -1 means no uploads at all
}

func (f *fakeClient) SearchChannels(_ context.Context, keyword, region string) ([]youtube.ChannelStub, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	stubs := make([]youtube.ChannelStub, 0, len(f.channels))
	for _, ch := range f.channels {
		stubs = append(stubs, youtube.ChannelStub{ID: ch.id, Title: ch.title})
	}
	return stubs, nil
}

func (f *fakeClient) GetChannelDetails(_ context.Context, ids []string) ([]youtube.ChannelDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	byID := make(map[string]fixtureChannel, len(f.channels))
	for _, ch := range f.channels {
		byID[ch.id] = ch
	}
	var details []youtube.ChannelDetail
	for _, id := range ids {
		ch, ok := byID[id]
		if !ok {
			continue
		}
		details = append(details, youtube.ChannelDetail{
			ID:                ch.id,
			Title:             ch.title,
			Country:           "US",
			SubscriberCount:   ch.subscribers,
			ViewCount:         ch.views,
			VideoCount:        ch.videos,
			UploadsPlaylistID: "UU" + ch.id[2:],
		})
	}
	return details, nil
}

func (f *fakeClient) GetLatestUpload(_ context.Context, playlistID string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	id := "UC" + playlistID[2:]
	for _, ch := range f.channels {
		if ch.id == id {
			if ch.daysAgo < 0 {
				return nil, nil
			}
			ts := time.Now().UTC().AddDate(0, 0, -ch.daysAgo)
			return &ts, nil
		}
	}
	return nil, nil
}

// openGate lets every call through.
type openGate struct{}

func (openGate) CanProceed(string) bool  { return true }
func (openGate) ShouldUseFallback() bool { return false }

// closedGate simulates an exhausted budget.
type closedGate struct{}

func (closedGate) CanProceed(string) bool  { return false }
func (closedGate) ShouldUseFallback() bool { return true }

func newTestSearchService(client DataClient, gate QuotaGate) *SearchService {
	return NewSearchService(client, gate, NewScoreService(), nil, zerolog.Nop(), 4, 50, 100)
}

func financeSpec() model.FilterSpec {
	return model.FilterSpec{
		Keywords:           []string{"finance podcast"},
		Regions:            []string{"US"},
		MinSubscribers:     10000,
		MaxSubscribers:     500000,
		MaxDaysSinceUpload: 45,
	}
}

func TestSearch_FiltersBoundsAndRecency(t *testing.T) {
	// Five channels: two outside subscriber bounds, one with a 90-day-old
	// upload. Exactly two survive.
	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCaaa01", title: "In Range Weekly", subscribers: 120000, views: 2000000, videos: 200, daysAgo: 5},
		{id: "UCbbb02", title: "In Range Monthly", subscribers: 80000, views: 900000, videos: 150, daysAgo: 30},
		{id: "UCccc03", title: "Tiny Channel", subscribers: 500, views: 10000, videos: 40, daysAgo: 2},
		{id: "UCddd04", title: "Mega Channel", subscribers: 2000000, views: 90000000, videos: 800, daysAgo: 1},
		{id: "UCeee05", title: "Stale Show", subscribers: 90000, views: 1000000, videos: 120, daysAgo: 90},
	}}

	svc := newTestSearchService(client, openGate{})
	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)

	require.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.TotalResults)
	assert.False(t, resp.UsingFallback)
	assert.False(t, resp.Partial)

	for _, ch := range resp.Data {
		assert.GreaterOrEqual(t, ch.SubscriberCount, int64(10000))
		assert.LessOrEqual(t, ch.SubscriberCount, int64(500000))
		require.NotNil(t, ch.DaysSinceLastUpload)
		assert.LessOrEqual(t, *ch.DaysSinceLastUpload, 45)
	}
}

func TestSearch_UnknownUploadDateKept(t *testing.T) {
	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCaaa01", title: "No Uploads Yet", subscribers: 50000, views: 100000, videos: 0, daysAgo: -1},
	}}

	svc := newTestSearchService(client, openGate{})
	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Nil(t, resp.Data[0].DaysSinceLastUpload)
	assert.Nil(t, resp.Data[0].LastUploadDate)
}

func TestSearch_SortOrderDeterministic(t *testing.T) {
	// Identical stats produce identical scores; the tie-breaks are
	// subscriber count descending, then id ascending.
	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCzzz09", title: "Z", subscribers: 100000, views: 1000000, videos: 100, daysAgo: 10},
		{id: "UCaaa01", title: "A", subscribers: 100000, views: 1000000, videos: 100, daysAgo: 10},
		{id: "UCmmm05", title: "M", subscribers: 200000, views: 2000000, videos: 100, daysAgo: 10},
	}}

	svc := newTestSearchService(client, openGate{})
	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)

	for i := 1; i < len(resp.Data); i++ {
		prev, cur := resp.Data[i-1], resp.Data[i]
		if prev.Score == cur.Score {
			if prev.SubscriberCount == cur.SubscriberCount {
				assert.Less(t, prev.ID, cur.ID)
			} else {
				assert.Greater(t, prev.SubscriberCount, cur.SubscriberCount)
			}
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}
	// The equal-stat pair ties on score and subscribers, so id decides.
	assert.Equal(t, "UCaaa01", resp.Data[1].ID)
	assert.Equal(t, "UCzzz09", resp.Data[2].ID)
}

func TestSearch_DeduplicatesAcrossPairs(t *testing.T) {
	// Two keywords x one region hit the same channels: ids must appear once,
	// with both keywords accumulated.
	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCaaa01", title: "A", subscribers: 100000, views: 1000000, videos: 100, daysAgo: 5},
	}}

	spec := financeSpec()
	spec.Keywords = []string{"finance podcast", "business podcast"}

	svc := newTestSearchService(client, openGate{})
	resp, err := svc.Search(context.Background(), spec)
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, []string{"business podcast", "finance podcast"}, resp.Data[0].KeywordsMatched)
	assert.Equal(t, 2, client.searchCalls)
	assert.Equal(t, 1, client.detailsCalls, "details are batch-fetched once for the dedup set")
}

func TestSearch_InvalidSpecFailsBeforeAnyCall(t *testing.T) {
	client := &fakeClient{}
	svc := newTestSearchService(client, openGate{})

	cases := []model.FilterSpec{
		{},
		{Keywords: []string{"  "}},
		{Keywords: []string{"x"}, MinSubscribers: 100, MaxSubscribers: 10},
		{Keywords: []string{"x"}, MaxDaysSinceUpload: 1000},
	}
	for _, spec := range cases {
		_, err := svc.Search(context.Background(), spec)
		var invalidErr *InvalidFilterError
		require.ErrorAs(t, err, &invalidErr)
	}
	assert.Zero(t, client.searchCalls, "validation failures must not spend quota")
}

func TestSearch_QuotaExhaustedServesFallback(t *testing.T) {
	client := &fakeClient{}
	svc := newTestSearchService(client, closedGate{})

	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)

	assert.True(t, resp.UsingFallback)
	assert.True(t, resp.Success)
	assert.Zero(t, client.searchCalls)
	// The fallback set goes through the same filters: every record respects
	// the spec bounds.
	for _, ch := range resp.Data {
		assert.GreaterOrEqual(t, ch.SubscriberCount, int64(10000))
		assert.LessOrEqual(t, ch.SubscriberCount, int64(500000))
	}
	assert.NotEmpty(t, resp.Data)
}

func TestSearch_NilClientServesFallback(t *testing.T) {
	svc := newTestSearchService(nil, openGate{})

	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)
	assert.True(t, resp.UsingFallback)
	assert.NotEmpty(t, resp.Data)
}

func TestSearch_QuotaErrorMidSearchFallsBack(t *testing.T) {
	client := &fakeClient{searchErr: youtube.ErrQuotaExceeded}
	svc := newTestSearchService(client, openGate{})

	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err, "quota exhaustion is a degradation, not a failure")
	assert.True(t, resp.UsingFallback)
}

func TestSearch_TransientPairFailureIsPartial(t *testing.T) {
	client := &fakeClient{searchErr: youtube.ErrTransient}
	svc := newTestSearchService(client, openGate{})

	resp, err := svc.Search(context.Background(), financeSpec())
	require.NoError(t, err)
	assert.True(t, resp.Partial)
	assert.False(t, resp.UsingFallback)
	assert.Empty(t, resp.Data)
}

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	var channels []fixtureChannel
	for i := range 30 {
		channels = append(channels, fixtureChannel{
			id:          "UCch" + string(rune('a'+i/26)) + string(rune('a'+i%26)),
			title:       "Channel",
			subscribers: int64(20000 + i*1000),
			views:       1000000,
			videos:      100,
			daysAgo:     10,
		})
	}
	client := &fakeClient{channels: channels}

	spec := financeSpec()
	spec.MaxResults = 10

	svc := newTestSearchService(client, openGate{})
	resp, err := svc.Search(context.Background(), spec)
	require.NoError(t, err)

	assert.Len(t, resp.Data, 10)
	assert.Equal(t, 30, resp.TotalResults, "total counts matches before truncation")
}

func TestFilterSpec_ValidateDefaults(t *testing.T) {
	spec := model.FilterSpec{Keywords: []string{"finance podcast"}}
	require.Empty(t, spec.Validate(50, 100))

	assert.Equal(t, model.DefaultRegions, spec.Regions)
	assert.Equal(t, int64(500000), spec.MaxSubscribers)
	assert.Equal(t, 45, spec.MaxDaysSinceUpload)
	assert.Equal(t, 50, spec.MaxResults)
}

func TestFilterSpec_CacheKeyOrderInsensitive(t *testing.T) {
	a := model.FilterSpec{Keywords: []string{"a", "b"}, Regions: []string{"US", "GB"},
		MinSubscribers: 1, MaxSubscribers: 2, MaxDaysSinceUpload: 3, MaxResults: 4}
	b := model.FilterSpec{Keywords: []string{"b", "a"}, Regions: []string{"GB", "US"},
		MinSubscribers: 1, MaxSubscribers: 2, MaxDaysSinceUpload: 3, MaxResults: 4}

	assert.Equal(t, a.CacheKey(), b.CacheKey())

	c := a
	c.MinSubscribers = 99
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

// normalizedKey computes the cache key the orchestrator derives after
// validation fills in defaults.
func normalizedKey(t *testing.T, spec model.FilterSpec) string {
	t.Helper()
	require.Empty(t, spec.Validate(50, 100))
	return spec.CacheKey()
}

func TestSearch_CacheHitSkipsUpstream(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	spec := financeSpec()
	seeded := cachedResponse(99)
	require.NoError(t, cache.SetSearch(ctx, normalizedKey(t, spec), seeded))

	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCaaa01", title: "In Range Weekly", subscribers: 120000, views: 2000000, videos: 200, daysAgo: 5},
	}}
	svc := NewSearchService(client, openGate{}, NewScoreService(), cache, zerolog.Nop(), 4, 50, 100)

	resp, err := svc.Search(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, 99, resp.TotalResults, "response must come from the cache")
	assert.Equal(t, 0, client.searchCalls, "cache hit must not reach the API")
	assert.Equal(t, 0, client.detailsCalls)
	assert.Equal(t, 0, client.uploadCalls)
}

func TestSearch_FullResponseCachedAndReused(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	client := &fakeClient{channels: []fixtureChannel{
		{id: "UCaaa01", title: "In Range Weekly", subscribers: 120000, views: 2000000, videos: 200, daysAgo: 5},
	}}
	svc := NewSearchService(client, openGate{}, NewScoreService(), cache, zerolog.Nop(), 4, 50, 100)

	first, err := svc.Search(ctx, financeSpec())
	require.NoError(t, err)
	require.Len(t, first.Data, 1)
	require.Equal(t, 1, client.searchCalls)

	stored, err := cache.GetSearch(ctx, normalizedKey(t, financeSpec()))
	require.NoError(t, err)
	require.NotNil(t, stored, "full live response must be written to the cache")

	second, err := svc.Search(ctx, financeSpec())
	require.NoError(t, err)
	assert.Equal(t, first.TotalResults, second.TotalResults)
	assert.Equal(t, 1, client.searchCalls, "repeat search must be served from the cache")
}

func TestSearch_FallbackResponseNotCached(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	svc := NewSearchService(&fakeClient{}, closedGate{}, NewScoreService(), cache, zerolog.Nop(), 4, 50, 100)

	resp, err := svc.Search(ctx, financeSpec())
	require.NoError(t, err)
	require.True(t, resp.UsingFallback)

	assert.Empty(t, mr.Keys(), "fallback responses must not be cached")
}

func TestSearch_PartialResponseNotCached(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	client := &fakeClient{searchErr: youtube.ErrTransient}
	svc := NewSearchService(client, openGate{}, NewScoreService(), cache, zerolog.Nop(), 4, 50, 100)

	resp, err := svc.Search(ctx, financeSpec())
	require.NoError(t, err)
	require.True(t, resp.Partial)

	assert.Empty(t, mr.Keys(), "partial responses must not be cached")
}
