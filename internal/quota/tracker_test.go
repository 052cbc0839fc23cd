package quota

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// memStore keeps counters in memory for tests.
type memStore struct {
	mu    sync.Mutex
	usage *model.QuotaUsage
	saves int
}

func (s *memStore) Load(_ context.Context) (*model.QuotaUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usage == nil {
		return nil, nil
	}
	u := *s.usage
	return &u, nil
}

func (s *memStore) Save(_ context.Context, usage *model.QuotaUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *usage
	s.usage = &u
	s.saves++
	return nil
}

func newTestTracker(t *testing.T, budget int) (*Tracker, *memStore) {
	t.Helper()
	store := &memStore{}
	tr, err := NewTracker(context.Background(), store, budget, nil, "America/Los_Angeles")
	require.NoError(t, err)
	return tr, store
}

func TestRecordCall_UsedIsSumOfCosts(t *testing.T) {
	tr, _ := newTestTracker(t, 10000)

	tr.RecordCall("search", true)        // 100
	tr.RecordCall("channels", true)      // 1
	tr.RecordCall("playlistItems", true) // 1

	status, _ := tr.Status()
	assert.Equal(t, 102, status.DailyUsed)
	assert.Equal(t, 3, status.RequestsToday)
	assert.Equal(t, 0, status.ErrorsToday)
	assert.Equal(t, 10000-102, status.Remaining)
}

func TestRecordCall_FailedCallsCountErrors(t *testing.T) {
	// Budget 10000, three failed 100-unit calls -> errors 3, used 300.
	tr, _ := newTestTracker(t, 10000)

	for range 3 {
		tr.RecordCall("search", false)
	}

	status, _ := tr.Status()
	assert.Equal(t, 300, status.DailyUsed)
	assert.Equal(t, 3, status.ErrorsToday)
}

func TestReset_ZeroesCounters(t *testing.T) {
	tr, _ := newTestTracker(t, 10000)

	tr.RecordCall("search", false)
	tr.Reset()

	status, _ := tr.Status()
	assert.Equal(t, 0, status.DailyUsed)
	assert.Equal(t, 0, status.RequestsToday)
	assert.Equal(t, 0, status.ErrorsToday)
	assert.Equal(t, tr.today(), status.LastResetDate)
}

func TestAutoReset_OnDateRollover(t *testing.T) {
	tr, _ := newTestTracker(t, 10000)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, tr.loc)
	tr.now = func() time.Time { return base }
	tr.Reset()
	tr.RecordCall("search", false)

	status, _ := tr.Status()
	require.Equal(t, 100, status.DailyUsed)

	// Advance past midnight Pacific: counters report zero without Reset().
	tr.now = func() time.Time { return base.Add(24 * time.Hour) }

	status, _ = tr.Status()
	assert.Equal(t, 0, status.DailyUsed)
	assert.Equal(t, 0, status.ErrorsToday)
	assert.Equal(t, "2025-06-02", status.LastResetDate)
}

func TestCanProceed_AdvisoryBudgetCheck(t *testing.T) {
	tr, _ := newTestTracker(t, 150)

	assert.True(t, tr.CanProceed("search"))
	tr.RecordCall("search", true) // 100 of 150 used
	assert.False(t, tr.CanProceed("search"))
	assert.True(t, tr.CanProceed("channels"))

	// The tracker never blocks: recording past budget still works.
	tr.RecordCall("search", true)
	status, _ := tr.Status()
	assert.Equal(t, 200, status.DailyUsed)
	assert.Negative(t, status.Remaining)
}

func TestShouldUseFallback(t *testing.T) {
	tr, _ := newTestTracker(t, 1000)
	assert.False(t, tr.ShouldUseFallback())

	// Burn past the 90% mark.
	for range 10 {
		tr.RecordCall("search", true)
	}
	assert.True(t, tr.ShouldUseFallback())

	// Repeated quota errors trigger fallback regardless of local budget.
	tr2, _ := newTestTracker(t, 1000000)
	for range 3 {
		tr2.RecordCall("channels", false)
	}
	assert.True(t, tr2.ShouldUseFallback())
}

func TestStatus_Alerts(t *testing.T) {
	tr, _ := newTestTracker(t, 1000)

	_, alerts := tr.Status()
	assert.Empty(t, alerts)

	// 60% used -> warning only.
	for range 6 {
		tr.RecordCall("search", true)
	}
	_, alerts = tr.Status()
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].Level)

	// 96% used -> warning, error, critical.
	tr.RecordCall("search", true)
	tr.RecordCall("search", true)
	tr.RecordCall("search", true)
	tr.RecordCall("search", true) // 1000 used
	_, alerts = tr.Status()
	levels := make([]string, 0, len(alerts))
	for _, a := range alerts {
		levels = append(levels, a.Level)
	}
	assert.Contains(t, levels, "warning")
	assert.Contains(t, levels, "error")
	assert.Contains(t, levels, "critical")
}

func TestCostOverrides(t *testing.T) {
	store := &memStore{}
	tr, err := NewTracker(context.Background(), store, 10000,
		map[string]int{"search": 50}, "America/Los_Angeles")
	require.NoError(t, err)

	assert.Equal(t, 50, tr.CostOf("search"))
	assert.Equal(t, 1, tr.CostOf("channels"))
	// Unknown operations cost as much as a search.
	assert.Equal(t, 50, tr.CostOf("somethingNew"))
}

func TestTracker_ConcurrentRecordCalls(t *testing.T) {
	tr, _ := newTestTracker(t, 1000000)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordCall("channels", true)
		}()
	}
	wg.Wait()

	status, _ := tr.Status()
	assert.Equal(t, 50, status.DailyUsed)
	assert.Equal(t, 50, status.RequestsToday)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// Missing file starts fresh.
	usage, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, usage)

	want := &model.QuotaUsage{
		DailyQuota:    10000,
		DailyUsed:     321,
		LastResetDate: "2025-06-01",
		RequestsToday: 7,
		QuotaErrors:   1,
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTracker_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	ctx := context.Background()

	tr, err := NewTracker(ctx, NewFileStore(path), 10000, nil, "America/Los_Angeles")
	require.NoError(t, err)
	tr.RecordCall("search", true)

	// New tracker over the same file sees the recorded usage.
	tr2, err := NewTracker(ctx, NewFileStore(path), 10000, nil, "America/Los_Angeles")
	require.NoError(t, err)
	status, _ := tr2.Status()
	assert.Equal(t, 100, status.DailyUsed)
}
