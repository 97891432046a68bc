package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"outreach/internal/awsutil"
	"outreach/internal/config"
	"outreach/internal/httpapi"
	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/observability"
	sqsqueue "outreach/internal/queue/sqs"
	"outreach/internal/sequence"
	"outreach/internal/store/pg"
	"outreach/internal/transform"
	"outreach/internal/transport"
	"outreach/internal/util"
)

const dueBroadcastBatch = 100

func main() {
	cfg := config.LoadScheduler()
	logging.Init("scheduler", cfg.LogFormat)

	interval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil {
		slog.Error("scheduler bad poll interval", "err", err, "value", cfg.PollInterval)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		slog.Error("scheduler db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	store := pg.New(db)

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion)
	if err != nil {
		slog.Error("scheduler sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	producer := &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.SQSQueueURL}
	relay := transport.NewRelayClient(cfg.RelayEndpoint, cfg.RelayRPS, cfg.RelayBurst)
	ai := transform.NewClient(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AIModel)
	sequences := &sequence.Engine{
		Store:           store,
		Deliverer:       relay,
		Transformer:     ai,
		Sink:            &metrics.Recorder{Store: store, FailureRateAlert: cfg.FailureRateAlert},
		MaxStepAttempts: cfg.MaxStepAttempts,
	}

	healthMux := httpapi.New().Mux
	healthMux.HandleFunc("/healthz", httpapi.Healthz())
	healthMux.HandleFunc("/readyz", httpapi.Readyz(2*time.Second, func(c context.Context) error {
		return db.Ping(c)
	}))
	healthSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.Logging(healthMux),
	}
	go func() {
		slog.Info("scheduler health listening", "port", cfg.Port)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("scheduler health server failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("scheduler started", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tick(ctx, store, producer, sequences)

		select {
		case sig := <-sigCh:
			slog.Info("scheduler shutdown", "signal", sig.String())
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = healthSrv.Shutdown(shutdownCtx)
			shutdownCancel()
			return
		case <-ticker.C:
		}
	}
}

// tick enqueues due broadcasts for the workers and runs due sequence steps
// inline. Both halves are independent; a failure in one never blocks the
// other.
func tick(ctx context.Context, store *pg.Store, producer *sqsqueue.Producer, sequences *sequence.Engine) {
	now := util.NowUTC()

	due, err := store.ListDueBroadcasts(ctx, now, dueBroadcastBatch)
	if err != nil {
		slog.Error("scheduler list due broadcasts failed", "err", err)
	}
	for _, bc := range due {
		err := producer.EnqueueExecute(ctx, sqsqueue.ExecuteJob{
			BroadcastID: bc.ID,
			ContentID:   bc.ContentID,
		})
		if err != nil {
			observability.Enqueues.WithLabelValues("error").Inc()
			slog.Error("scheduler enqueue failed", "err", err, "broadcast_id", bc.ID)
			continue
		}
		observability.Enqueues.WithLabelValues("ok").Inc()
		slog.Info("scheduler enqueued broadcast", "broadcast_id", bc.ID)
	}

	stats, err := sequences.ProcessDue(ctx, now)
	if err != nil {
		slog.Error("scheduler process due enrollments failed", "err", err)
		return
	}
	if stats.Processed > 0 {
		slog.Info("scheduler sequence pass",
			"processed", stats.Processed,
			"sent", stats.Sent,
			"failed", stats.Failed,
			"completed", stats.Completed,
		)
	}
}
