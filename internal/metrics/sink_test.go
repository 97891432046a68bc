package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach/internal/domain"
	"outreach/internal/store"
)

type fakeStore struct {
	rollup    store.DailyMetrics
	rollupErr error

	deliveryCalls    int
	translationCalls int
	alerts           []store.AlertInsert
	alertErr         error
}

func (f *fakeStore) UpsertDailyDeliveries(_ context.Context, day time.Time, sent, failed int) (store.DailyMetrics, error) {
	f.deliveryCalls++
	return f.rollup, f.rollupErr
}

func (f *fakeStore) UpsertDailyTranslations(_ context.Context, day time.Time, generated, failedGen int) (store.DailyMetrics, error) {
	f.translationCalls++
	return f.rollup, f.rollupErr
}

func (f *fakeStore) InsertAlert(_ context.Context, in store.AlertInsert) error {
	f.alerts = append(f.alerts, in)
	return f.alertErr
}

func TestRecordDeliveriesRaisesThresholdAlert(t *testing.T) {
	fs := &fakeStore{rollup: store.DailyMetrics{Sent: 6, Failed: 4, FailureRate: 0.4}}
	r := &Recorder{Store: fs, FailureRateAlert: 0.25}

	r.RecordDeliveries(context.Background(), time.Now(), 6, 4)

	if fs.deliveryCalls != 1 {
		t.Fatalf("expected 1 rollup call, got %d", fs.deliveryCalls)
	}
	if len(fs.alerts) != 1 {
		t.Fatalf("expected threshold alert, got %d alerts", len(fs.alerts))
	}
	a := fs.alerts[0]
	if a.Severity != domain.SeverityWarning || a.Category != "delivery_failure_rate" {
		t.Fatalf("unexpected alert %+v", a)
	}
}

func TestRecordDeliveriesBelowThreshold(t *testing.T) {
	fs := &fakeStore{rollup: store.DailyMetrics{Sent: 99, Failed: 1, FailureRate: 0.01}}
	r := &Recorder{Store: fs, FailureRateAlert: 0.25}

	r.RecordDeliveries(context.Background(), time.Now(), 99, 1)

	if len(fs.alerts) != 0 {
		t.Fatalf("expected no alert, got %d", len(fs.alerts))
	}
}

func TestRecordDeliveriesNoopOnZeroCounts(t *testing.T) {
	fs := &fakeStore{}
	r := &Recorder{Store: fs, FailureRateAlert: 0.25}

	r.RecordDeliveries(context.Background(), time.Now(), 0, 0)

	if fs.deliveryCalls != 0 {
		t.Fatalf("expected no rollup call, got %d", fs.deliveryCalls)
	}
}

func TestRecordDeliveriesSwallowsStoreError(t *testing.T) {
	fs := &fakeStore{rollupErr: errors.New("db down")}
	r := &Recorder{Store: fs, FailureRateAlert: 0.25}

	// Must not panic or alert; failures here never propagate to deliveries.
	r.RecordDeliveries(context.Background(), time.Now(), 5, 5)

	if len(fs.alerts) != 0 {
		t.Fatalf("expected no alert after rollup error, got %d", len(fs.alerts))
	}
}

func TestRaiseAlertSwallowsInsertError(t *testing.T) {
	fs := &fakeStore{alertErr: errors.New("db down")}
	r := &Recorder{Store: fs}

	r.RaiseAlert(context.Background(), domain.SeverityError, "broadcast_failures", "msg", nil)

	if len(fs.alerts) != 1 {
		t.Fatalf("expected insert attempt, got %d", len(fs.alerts))
	}
}
