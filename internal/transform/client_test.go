package transform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransformUnconfiguredFallsBack(t *testing.T) {
	c := NewClient("", "", "m")
	res := c.Transform(context.Background(), "prompt", "original text", "")
	if res.Generated {
		t.Fatalf("expected Generated=false with no endpoint")
	}
	if res.Text != "original text" {
		t.Fatalf("expected original text back, got %q", res.Text)
	}
}

func TestTransformSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  rewritten  "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m")
	res := c.Transform(context.Background(), "prompt", "original", "")
	if !res.Generated {
		t.Fatalf("expected Generated=true")
	}
	if res.Text != "rewritten" {
		t.Fatalf("expected trimmed completion, got %q", res.Text)
	}
}

func TestTransformServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m")
	res := c.Transform(context.Background(), "prompt", "original", "")
	if res.Generated || res.Text != "original" {
		t.Fatalf("expected untouched original on 5xx, got %+v", res)
	}
}

func TestTransformEmptyCompletionFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m")
	res := c.Transform(context.Background(), "prompt", "original", "")
	if res.Generated || res.Text != "original" {
		t.Fatalf("expected fallback on empty completion, got %+v", res)
	}
}

func TestAdaptPromptPerChannel(t *testing.T) {
	sms := AdaptPrompt("sms")
	if !strings.Contains(sms, "SMS") {
		t.Fatalf("expected SMS constraints in prompt: %q", sms)
	}
	social := AdaptPrompt("social")
	if !strings.Contains(social, "280") {
		t.Fatalf("expected social length constraint: %q", social)
	}
}
