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
	"outreach/internal/broadcast"
	"outreach/internal/config"
	"outreach/internal/httpapi"
	"outreach/internal/localization"
	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/observability"
	sqsqueue "outreach/internal/queue/sqs"
	"outreach/internal/sequence"
	"outreach/internal/store/pg"
	"outreach/internal/transform"
	"outreach/internal/transport"
)

func main() {
	cfg := config.LoadAPI()
	logging.Init("api", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		slog.Error("api db connect failed", "err", err)
		os.Exit(1)
	}

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion)
	if err != nil {
		slog.Error("api sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	store := pg.New(db)
	producer := &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.SQSQueueURL}
	relay := transport.NewRelayClient(cfg.RelayEndpoint, cfg.RelayRPS, cfg.RelayBurst)
	ai := transform.NewClient(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AIModel)
	sink := &metrics.Recorder{Store: store, FailureRateAlert: cfg.FailureRateAlert}

	api := &httpapi.API{
		Broadcasts: &broadcast.Engine{
			Store:     store,
			Deliverer: relay,
			Sink:      sink,
		},
		Sequences: &sequence.Engine{
			Store:       store,
			Deliverer:   relay,
			Transformer: ai,
			Sink:        sink,
		},
		Localization: &localization.Pipeline{
			Store:       store,
			Transformer: ai,
			Cache:       localization.NewMemoryCache(),
			Sink:        sink,
		},
		Queue:  producer,
		Reader: store,
	}

	s := httpapi.New()
	api.Register(s.Mux)

	s.Mux.HandleFunc("/healthz", httpapi.Healthz())
	s.Mux.HandleFunc("/readyz", httpapi.Readyz(2*time.Second, func(ctx context.Context) error {
		return db.Ping(ctx)
	}))

	handler := httpapi.Logging(httpapi.Metrics(observability.APIRequests)(s.Mux))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}

	db.Close()
}
