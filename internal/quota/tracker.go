package quota

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// Default per-call costs for the YouTube Data API v3. search.list is 100
// units; channels.list and playlistItems.list are 1 unit per call.
var defaultCosts = map[string]int{
	"search":        100,
	"channels":      1,
	"playlistItems": 1,
}

// Alert thresholds on remaining budget percent.
const (
	warnRemainingPercent     = 50.0
	errorRemainingPercent    = 20.0
	criticalRemainingPercent = 5.0
	criticalQuotaErrors      = 3

	fallbackRemainingPercent = 10.0
)

const dateLayout = "2006-01-02"

// Store persists quota counters across process restarts.
type Store interface {
	Load(ctx context.Context) (*model.QuotaUsage, error)
	Save(ctx context.Context, usage *model.QuotaUsage) error
}

// Tracker meters YouTube API usage against the daily budget. Counters are
// process-wide shared state mutated by every upstream call, so all access is
// serialized behind a single mutex. The tracker is advisory: it never blocks
// a call, it only reports remaining budget so the orchestrator can decide
// whether to proceed or fall back.
type Tracker struct {
	mu    sync.Mutex
	usage model.QuotaUsage

	store Store
	costs map[string]int
	loc   *time.Location
	now   func() time.Time
}

// NewTracker loads persisted counters from the store and applies the daily
// reset if the stored date is stale. costOverrides entries replace the
// default cost table per call type.
func NewTracker(ctx context.Context, store Store, dailyQuota int, costOverrides map[string]int, resetTZ string) (*Tracker, error) {
	loc, err := time.LoadLocation(resetTZ)
	if err != nil {
		return nil, fmt.Errorf("load quota reset timezone %q: %w", resetTZ, err)
	}

	costs := make(map[string]int, len(defaultCosts))
	for op, c := range defaultCosts {
		costs[op] = c
	}
	for op, c := range costOverrides {
		costs[op] = c
	}

	t := &Tracker{
		store: store,
		costs: costs,
		loc:   loc,
		now:   time.Now,
	}

	usage, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quota usage: %w", err)
	}
	if usage == nil {
		usage = &model.QuotaUsage{LastResetDate: t.today()}
	}
	usage.DailyQuota = dailyQuota
	t.usage = *usage
	t.checkDailyReset(ctx)

	return t, nil
}

// CostOf returns the quota cost for an operation. Unknown operations are
// priced like a search, the most expensive call.
func (t *Tracker) CostOf(op string) int {
	if c, ok := t.costs[op]; ok {
		return c
	}
	return t.costs["search"]
}

// RecordCall records a completed upstream call. A failed call is one the API
// rejected for quota/rate reasons; its cost still counts against the budget.
func (t *Tracker) RecordCall(op string, succeeded bool) {
	ctx := context.Background()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkDailyReset(ctx)

	t.usage.DailyUsed += t.CostOf(op)
	t.usage.RequestsToday++
	t.usage.LastRequestAt = t.now().Unix()
	if !succeeded {
		t.usage.QuotaErrors++
		log.Printf("quota: upstream quota error recorded (total today: %d)", t.usage.QuotaErrors)
	}

	t.persist(ctx)
}

// CanProceed reports whether a call of the given type fits the remaining
// budget. Advisory only.
func (t *Tracker) CanProceed(op string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkDailyReset(context.Background())

	return t.usage.DailyUsed+t.CostOf(op) <= t.usage.DailyQuota
}

// ShouldUseFallback reports whether live API calls should be replaced by the
// deterministic fallback dataset: budget nearly or fully spent, or repeated
// quota errors from the API (real usage has silently exceeded budget).
func (t *Tracker) ShouldUseFallback() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkDailyReset(context.Background())

	remaining := remainingPercent(t.usage)
	return remaining < fallbackRemainingPercent ||
		t.usage.QuotaErrors >= criticalQuotaErrors ||
		t.usage.DailyUsed >= t.usage.DailyQuota
}

// Snapshot returns the raw used/error counters for metrics gauges.
func (t *Tracker) Snapshot() (used, errors int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkDailyReset(context.Background())

	return t.usage.DailyUsed, t.usage.QuotaErrors
}

// Status returns the derived quota view and its alerts.
func (t *Tracker) Status() (model.QuotaStatus, []model.QuotaAlert) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkDailyReset(context.Background())

	status := model.QuotaStatus{
		DailyQuota:       t.usage.DailyQuota,
		DailyUsed:        t.usage.DailyUsed,
		Remaining:        t.usage.DailyQuota - t.usage.DailyUsed,
		RemainingPercent: remainingPercent(t.usage),
		RequestsToday:    t.usage.RequestsToday,
		ErrorsToday:      t.usage.QuotaErrors,
		ResetsInHours:    t.hoursUntilReset(),
		LastResetDate:    t.usage.LastResetDate,
	}
	return status, alertsFor(status)
}

// Reset zeroes the counters and stamps today's date. Operator recovery path;
// it resets local tracking only, not the API's actual quota.
func (t *Tracker) Reset() {
	ctx := context.Background()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.usage.DailyUsed = 0
	t.usage.RequestsToday = 0
	t.usage.QuotaErrors = 0
	t.usage.LastResetDate = t.today()
	t.persist(ctx)
}

// checkDailyReset zeroes the counters when the quota day has rolled over.
// Callers must hold t.mu.
func (t *Tracker) checkDailyReset(ctx context.Context) {
	today := t.today()
	if t.usage.LastResetDate == today {
		return
	}
	log.Printf("quota: daily reset (%s -> %s)", t.usage.LastResetDate, today)
	t.usage.DailyUsed = 0
	t.usage.RequestsToday = 0
	t.usage.QuotaErrors = 0
	t.usage.LastResetDate = today
	t.persist(ctx)
}

// persist saves the counters. Persist failures are logged, never surfaced:
// the tracker must not block or fail API calls. Callers must hold t.mu.
func (t *Tracker) persist(ctx context.Context) {
	usage := t.usage
	if err := t.store.Save(ctx, &usage); err != nil {
		log.Printf("quota: save failed: %v", err)
	}
}

func (t *Tracker) today() string {
	return t.now().In(t.loc).Format(dateLayout)
}

// hoursUntilReset returns hours until the next midnight in the reset
// timezone. Callers must hold t.mu.
func (t *Tracker) hoursUntilReset() float64 {
	now := t.now().In(t.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, t.loc).AddDate(0, 0, 1)
	return midnight.Sub(now).Hours()
}

func remainingPercent(u model.QuotaUsage) float64 {
	if u.DailyQuota <= 0 {
		return 0
	}
	return float64(u.DailyQuota-u.DailyUsed) / float64(u.DailyQuota) * 100
}

// alertsFor derives threshold alerts from a status snapshot.
func alertsFor(s model.QuotaStatus) []model.QuotaAlert {
	alerts := []model.QuotaAlert{}

	if s.RemainingPercent < warnRemainingPercent {
		alerts = append(alerts, model.QuotaAlert{
			Level:   "warning",
			Message: fmt.Sprintf("Only %.1f%% of daily quota remaining", s.RemainingPercent),
		})
	}
	if s.RemainingPercent < errorRemainingPercent {
		alerts = append(alerts, model.QuotaAlert{
			Level:   "error",
			Message: fmt.Sprintf("Quota nearly exhausted: %d of %d units used", s.DailyUsed, s.DailyQuota),
		})
	}
	if s.RemainingPercent < criticalRemainingPercent || s.ErrorsToday >= criticalQuotaErrors {
		alerts = append(alerts, model.QuotaAlert{
			Level:   "critical",
			Message: "Critically low quota - fallback data will be served",
		})
	}
	if s.ErrorsToday > 0 && s.ErrorsToday < criticalQuotaErrors {
		alerts = append(alerts, model.QuotaAlert{
			Level:   "error",
			Message: fmt.Sprintf("%d quota errors from the YouTube API today", s.ErrorsToday),
		})
	}

	return alerts
}
