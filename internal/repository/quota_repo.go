package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// QuotaRepo persists quota counters in Postgres, one row per quota day.
// Preferred over the JSON file store when the service runs with multiple
// replicas sharing one API key.
type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// Load returns the most recent counters row, or (nil, nil) when the table is
// empty. The tracker handles stale dates itself via its daily-reset check.
func (r *QuotaRepo) Load(ctx context.Context) (*model.QuotaUsage, error) {
	query := `
		SELECT daily_quota, daily_used, last_reset_date, requests_today,
		       quota_errors, last_request_at
		FROM quota_usage
		ORDER BY last_reset_date DESC
		LIMIT 1`

	var u model.QuotaUsage
	err := r.pool.QueryRow(ctx, query).Scan(
		&u.DailyQuota, &u.DailyUsed, &u.LastResetDate, &u.RequestsToday,
		&u.QuotaErrors, &u.LastRequestAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Save upserts the counters row for the usage's quota day.
func (r *QuotaRepo) Save(ctx context.Context, usage *model.QuotaUsage) error {
	query := `
		INSERT INTO quota_usage (last_reset_date, daily_quota, daily_used,
		                         requests_today, quota_errors, last_request_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (last_reset_date) DO UPDATE SET
			daily_quota = EXCLUDED.daily_quota,
			daily_used = EXCLUDED.daily_used,
			requests_today = EXCLUDED.requests_today,
			quota_errors = EXCLUDED.quota_errors,
			last_request_at = EXCLUDED.last_request_at`

	_, err := r.pool.Exec(ctx, query,
		usage.LastResetDate, usage.DailyQuota, usage.DailyUsed,
		usage.RequestsToday, usage.QuotaErrors, usage.LastRequestAt)
	return err
}

// EnsureSchema creates the quota_usage table if it does not exist yet.
func (r *QuotaRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quota_usage (
			last_reset_date TEXT PRIMARY KEY,
			daily_quota     INTEGER NOT NULL,
			daily_used      INTEGER NOT NULL DEFAULT 0,
			requests_today  INTEGER NOT NULL DEFAULT 0,
			quota_errors    INTEGER NOT NULL DEFAULT 0,
			last_request_at BIGINT  NOT NULL DEFAULT 0
		)`)
	return err
}
