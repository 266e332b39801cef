package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/templui/goalplanner/internal/apperr"
)

// Client sends a built prompt to the generative-text service and returns the
// raw response envelope. Implementations never retry.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the eventual outcome of an asynchronous Generate call.
type Result struct {
	Envelope string
	Err      error
}

// GenerateAsync runs client.Generate on its own goroutine. The channel
// receives exactly one Result and is then closed.
func GenerateAsync(ctx context.Context, client Client, prompt string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		envelope, err := client.Generate(ctx, prompt)
		out <- Result{Envelope: envelope, Err: err}
	}()
	return out
}

// MaxResponseBytes caps how much of an upstream response body is read.
const MaxResponseBytes = 4 << 20

type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	// MaxResponseBytes defaults to MaxResponseBytes.
	MaxResponseBytes int64
}

// HTTPClient posts prompts to a generateContent style REST endpoint.
type HTTPClient struct {
	url        string
	apiKey     string
	maxBody    int64
	httpClient *http.Client
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = MaxResponseBytes
	}
	return &HTTPClient{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		maxBody: maxBody,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUpstreamUnavailable, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("generative service unreachable", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return "", apperr.Wrap(apperr.ErrUpstreamUnavailable, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUpstreamUnavailable, err, "failed to read response")
	}
	if int64(len(body)) > c.maxBody {
		slog.Error("generative service response too large", "status", resp.StatusCode, "limit_bytes", c.maxBody)
		return "", apperr.New(apperr.ErrMalformedUpstreamEnvelope,
			fmt.Sprintf("response exceeds %d bytes", c.maxBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("generative service error",
			"status", resp.StatusCode,
			"body", truncate(string(body), 512),
		)
		return "", apperr.Upstream(resp.StatusCode, string(body))
	}

	if strings.TrimSpace(string(body)) == "" {
		return "", apperr.New(apperr.ErrUpstreamEmptyResponse, "empty response body")
	}

	slog.Debug("generative service responded",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
