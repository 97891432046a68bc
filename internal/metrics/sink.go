package metrics

import (
	"context"
	"log/slog"
	"time"

	"outreach/internal/domain"
	"outreach/internal/observability"
	"outreach/internal/store"
	"outreach/internal/util"
)

// Sink is the passive consumer of engine outcomes: daily rollup counters plus
// threshold-triggered alerts. All methods are fire-and-forget: a broken
// metrics write never fails a delivery.
type Sink interface {
	RecordDeliveries(ctx context.Context, day time.Time, sent, failed int)
	RecordTranslations(ctx context.Context, day time.Time, generated, failedGen int)
	RaiseAlert(ctx context.Context, severity domain.AlertSeverity, category, message string, details map[string]any)
}

type Store interface {
	UpsertDailyDeliveries(ctx context.Context, day time.Time, sent, failed int) (store.DailyMetrics, error)
	UpsertDailyTranslations(ctx context.Context, day time.Time, generated, failedGen int) (store.DailyMetrics, error)
	InsertAlert(ctx context.Context, in store.AlertInsert) error
}

type Recorder struct {
	Store Store

	// FailureRateAlert is the daily delivery failure rate that triggers a
	// warning alert. Zero disables the threshold.
	FailureRateAlert float64
}

func (r *Recorder) RecordDeliveries(ctx context.Context, day time.Time, sent, failed int) {
	if sent == 0 && failed == 0 {
		return
	}
	rollup, err := r.Store.UpsertDailyDeliveries(ctx, day.UTC().Truncate(24*time.Hour), sent, failed)
	if err != nil {
		slog.Error("daily delivery rollup failed", "err", err, "sent", sent, "failed", failed)
		return
	}
	if r.FailureRateAlert > 0 && rollup.Failed > 0 && rollup.FailureRate >= r.FailureRateAlert {
		r.RaiseAlert(ctx, domain.SeverityWarning, "delivery_failure_rate",
			"daily delivery failure rate above threshold",
			map[string]any{
				"failureRate": rollup.FailureRate,
				"threshold":   r.FailureRateAlert,
				"sent":        rollup.Sent,
				"failed":      rollup.Failed,
			})
	}
}

func (r *Recorder) RecordTranslations(ctx context.Context, day time.Time, generated, failedGen int) {
	if generated == 0 && failedGen == 0 {
		return
	}
	if _, err := r.Store.UpsertDailyTranslations(ctx, day.UTC().Truncate(24*time.Hour), generated, failedGen); err != nil {
		slog.Error("daily translation rollup failed", "err", err, "generated", generated, "failed", failedGen)
	}
}

func (r *Recorder) RaiseAlert(ctx context.Context, severity domain.AlertSeverity, category, message string, details map[string]any) {
	observability.Alerts.WithLabelValues(string(severity), category).Inc()
	slog.Warn("alert raised", "severity", severity, "category", category, "message", message)
	if err := r.Store.InsertAlert(ctx, store.AlertInsert{
		ID:       util.NewAlertID(),
		Severity: severity,
		Category: category,
		Message:  message,
		Details:  details,
		Now:      util.NowUTC(),
	}); err != nil {
		slog.Error("alert insert failed", "err", err, "category", category)
	}
}
