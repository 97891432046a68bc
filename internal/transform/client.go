package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"outreach/internal/observability"
)

// Client calls an OpenAI-compatible chat completions endpoint. Any failure
// (unconfigured endpoint, open breaker, transport error, non-2xx, empty
// completion) degrades to the original text with Generated=false. The
// pipeline never blocks on AI availability.
type Client struct {
	Endpoint string
	APIKey   string
	Model    string
	HTTP     *http.Client
	Breaker  *gobreaker.CircuitBreaker
}

func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    model,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai",
			MaxRequests: 3,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		}),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Transform(ctx context.Context, systemPrompt, text, extra string) Result {
	if c.Endpoint == "" {
		return Result{Text: text, Generated: false}
	}

	start := time.Now()
	out, err := c.execute(ctx, systemPrompt, text, extra)
	observability.TransformLatency.Observe(time.Since(start).Seconds())
	if err != nil || strings.TrimSpace(out) == "" {
		observability.Transforms.WithLabelValues("chat", "fallback").Inc()
		return Result{Text: text, Generated: false}
	}
	observability.Transforms.WithLabelValues("chat", "ok").Inc()
	return Result{Text: strings.TrimSpace(out), Generated: true}
}

func (c *Client) execute(ctx context.Context, systemPrompt, text, extra string) (string, error) {
	call := func() (any, error) { return c.complete(ctx, systemPrompt, text, extra) }

	var res any
	var err error
	if c.Breaker != nil {
		res, err = c.Breaker.Execute(call)
	} else {
		res, err = call()
	}
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, text, extra string) (string, error) {
	user := text
	if extra != "" {
		user = extra + "\n\n" + text
	}
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.Endpoint, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{status: resp.StatusCode}
	}

	var out chatResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", io.EOF
	}
	return out.Choices[0].Message.Content, nil
}

type statusError struct{ status int }

func (e *statusError) Error() string { return http.StatusText(e.status) }
