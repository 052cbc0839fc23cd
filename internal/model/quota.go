package model

import "time"

// QuotaUsage is the persisted quota counter state. All counters cover the
// current quota day and reset when the date rolls over in the API's reset
// timezone.
type QuotaUsage struct {
	DailyQuota    int    `json:"daily_quota"`
	DailyUsed     int    `json:"daily_used"`
	LastResetDate string `json:"last_reset_date"`
	RequestsToday int    `json:"requests_today"`
	QuotaErrors   int    `json:"quota_errors"`
	LastRequestAt int64  `json:"last_request_time"`
}

// QuotaStatus is the derived, read-only view returned by the status endpoint.
type QuotaStatus struct {
	DailyQuota       int     `json:"daily_quota"`
	DailyUsed        int     `json:"daily_used"`
	Remaining        int     `json:"remaining"`
	RemainingPercent float64 `json:"remaining_percent"`
	RequestsToday    int     `json:"requests_today"`
	ErrorsToday      int     `json:"errors_today"`
	ResetsInHours    float64 `json:"resets_in_hours"`
	LastResetDate    string  `json:"last_reset_date"`
}

// QuotaAlert is derived from QuotaStatus thresholds, never stored.
type QuotaAlert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// QuotaStatusResponse is the body of GET /api/quota/status.
type QuotaStatusResponse struct {
	Quota         QuotaStatus  `json:"quota"`
	Alerts        []QuotaAlert `json:"alerts"`
	UsingFallback bool         `json:"using_fallback"`
	Timestamp     time.Time    `json:"timestamp"`
}
