package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"outreach/internal/store"
)

// UpsertDailyDeliveries folds a batch of delivery outcomes into the day's
// rollup row and returns the post-increment totals. The failure rate is
// recomputed from the incremented counters in the same statement so readers
// never observe counts and rate from different batches.
func (s *Store) UpsertDailyDeliveries(ctx context.Context, day time.Time, sent, failed int) (store.DailyMetrics, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO metrics_daily (day, sent, failed, failure_rate, generated, generation_failed, updated_at)
		VALUES ($1, $2, $3,
		        CASE WHEN $2+$3 = 0 THEN 0 ELSE $3::float8/($2+$3) END,
		        0, 0, now())
		ON CONFLICT (day) DO UPDATE SET
			sent   = metrics_daily.sent + EXCLUDED.sent,
			failed = metrics_daily.failed + EXCLUDED.failed,
			failure_rate = CASE
				WHEN metrics_daily.sent + EXCLUDED.sent + metrics_daily.failed + EXCLUDED.failed = 0 THEN 0
				ELSE (metrics_daily.failed + EXCLUDED.failed)::float8
					/ (metrics_daily.sent + EXCLUDED.sent + metrics_daily.failed + EXCLUDED.failed)
			END,
			updated_at = now()
		RETURNING day, sent, failed, failure_rate, generated, generation_failed
	`, day.UTC().Truncate(24*time.Hour), sent, failed)
	return scanDailyMetrics(row)
}

func (s *Store) UpsertDailyTranslations(ctx context.Context, day time.Time, generated, failed int) (store.DailyMetrics, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO metrics_daily (day, sent, failed, failure_rate, generated, generation_failed, updated_at)
		VALUES ($1, 0, 0, 0, $2, $3, now())
		ON CONFLICT (day) DO UPDATE SET
			generated         = metrics_daily.generated + EXCLUDED.generated,
			generation_failed = metrics_daily.generation_failed + EXCLUDED.generation_failed,
			updated_at        = now()
		RETURNING day, sent, failed, failure_rate, generated, generation_failed
	`, day.UTC().Truncate(24*time.Hour), generated, failed)
	return scanDailyMetrics(row)
}

func (s *Store) InsertAlert(ctx context.Context, in store.AlertInsert) error {
	details, err := json.Marshal(in.Details)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO alerts (id, severity, category, message, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, in.ID, in.Severity, in.Category, in.Message, details, in.Now)
	return err
}

func scanDailyMetrics(row pgx.Row) (store.DailyMetrics, error) {
	var m store.DailyMetrics
	err := row.Scan(&m.Day, &m.Sent, &m.Failed, &m.FailureRate, &m.Generated, &m.GenerationFailed)
	if err != nil {
		return store.DailyMetrics{}, err
	}
	return m, nil
}
