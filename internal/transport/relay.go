package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"outreach/internal/observability"
)

// RelayClient posts delivery requests to the outbound webhook relay.
//
// Dev mode: with no endpoint configured, the payload is logged and the send
// reported successful, so pipelines stay testable without live channel
// integrations.
type RelayClient struct {
	Endpoint string
	HTTP     *http.Client
	Limiter  *rate.Limiter
}

func NewRelayClient(endpoint string, rps float64, burst int) *RelayClient {
	return &RelayClient{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type relayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (c *RelayClient) Deliver(ctx context.Context, req DeliveryRequest) DeliveryResult {
	if c.Endpoint == "" {
		slog.Info("relay dev mode: delivery logged, not sent",
			"channel", req.Channel,
			"address", req.Address,
			"broadcast_id", req.BroadcastID,
			"content_id", req.ContentID,
		)
		observability.RelaySend.WithLabelValues("dev_mode", "0").Inc()
		return DeliveryResult{Success: true}
	}

	if c.Limiter != nil {
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := c.Limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			observability.RelaySend.WithLabelValues("rate_limited_local", "0").Inc()
			return DeliveryResult{Success: false, Error: "local rate limit wait: " + err.Error()}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return DeliveryResult{Success: false, Error: err.Error()}
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Success: false, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		observability.RelaySend.WithLabelValues("error", "0").Inc()
		return DeliveryResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	observability.RelayLatency.Observe(time.Since(start).Seconds())

	var out relayResponse
	_ = json.Unmarshal(b, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.RelaySend.WithLabelValues("error", strconv.Itoa(resp.StatusCode)).Inc()
		if out.Error != "" {
			return DeliveryResult{Success: false, Error: out.Error}
		}
		return DeliveryResult{Success: false, Error: "relay returned " + resp.Status}
	}
	if !out.Success && out.Error != "" {
		observability.RelaySend.WithLabelValues("rejected", strconv.Itoa(resp.StatusCode)).Inc()
		return DeliveryResult{Success: false, Error: out.Error}
	}

	observability.RelaySend.WithLabelValues("ok", strconv.Itoa(resp.StatusCode)).Inc()
	return DeliveryResult{Success: true}
}
