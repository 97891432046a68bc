package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach/internal/domain"
)

func TestDeliverDevModeSucceeds(t *testing.T) {
	c := NewRelayClient("", 10, 10)
	res := c.Deliver(context.Background(), DeliveryRequest{
		Channel: domain.ChannelEmail,
		Address: "ana@example.org",
		Body:    "hello",
	})
	if !res.Success {
		t.Fatalf("expected dev mode to report success, got %+v", res)
	}
}

func TestDeliverSuccess(t *testing.T) {
	var got DeliveryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, 100, 10)
	res := c.Deliver(context.Background(), DeliveryRequest{
		Channel:     domain.ChannelSMS,
		Address:     "+15550001111",
		Body:        "hi",
		BroadcastID: "bc_1",
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if got.BroadcastID != "bc_1" || got.Channel != domain.ChannelSMS {
		t.Fatalf("relay payload missing correlation fields: %+v", got)
	}
}

func TestDeliverRelayErrorIsResultNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":"upstream unreachable"}`))
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, 100, 10)
	res := c.Deliver(context.Background(), DeliveryRequest{Channel: domain.ChannelEmail, Body: "x"})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Error != "upstream unreachable" {
		t.Fatalf("expected relay error string, got %q", res.Error)
	}
}

func TestDeliverRejectedWithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"unknown channel"}`))
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, 100, 10)
	res := c.Deliver(context.Background(), DeliveryRequest{Channel: domain.Channel("fax"), Body: "x"})
	if res.Success || res.Error != "unknown channel" {
		t.Fatalf("expected rejection surfaced, got %+v", res)
	}
}
