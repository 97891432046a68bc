package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"outreach/internal/transport"
)

// mock-relay stands in for the outbound webhook relay in local and CI
// environments. Outcomes are random at MOCK_SUCCESS_RATE; failures come back
// as success=false payloads, matching the real relay contract.
type config struct {
	Port        string  `envconfig:"PORT" default:"8081"`
	SuccessRate float64 `envconfig:"MOCK_SUCCESS_RATE" default:"0.95"`
	DelayMs     int     `envconfig:"MOCK_DELAY_MS" default:"0"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var received, failed atomic.Int64
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	r := mux.NewRouter()
	r.HandleFunc("/deliver", func(w http.ResponseWriter, req *http.Request) {
		var dr transport.DeliveryRequest
		if err := json.NewDecoder(req.Body).Decode(&dr); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if cfg.DelayMs > 0 {
			time.Sleep(time.Duration(cfg.DelayMs) * time.Millisecond)
		}

		received.Add(1)
		resp := response{Success: true}
		if rng.Float64() >= cfg.SuccessRate {
			failed.Add(1)
			resp = response{Success: false, Error: "mock relay rejected delivery"}
		}

		slog.Info("mock relay delivery",
			"channel", dr.Channel,
			"address", dr.Address,
			"broadcast_id", dr.BroadcastID,
			"success", resp.Success,
		)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodPost)

	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{
			"received": received.Load(),
			"failed":   failed.Load(),
		})
	}).Methods(http.MethodGet)

	slog.Info("mock relay listening", "port", cfg.Port, "success_rate", cfg.SuccessRate)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("mock relay failed", "err", err)
		os.Exit(1)
	}
}
