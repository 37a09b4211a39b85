// Package renderclient calls a remote certificate render service over HTTP.
package renderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// IdempotencyHeader carries the per-record idempotency key.
	IdempotencyHeader = "Idempotency-Key"

	defaultTimeout = 60 * time.Second
	maxPDFSize     = 32 << 20
	maxErrorBody   = 512
)

// ErrResponseTooLarge is returned when the rendered document exceeds the read limit.
var ErrResponseTooLarge = errors.New("render response exceeds size limit")

// Config configures the render client.
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Client posts certificate payloads and returns the rendered PDF bytes.
// It makes exactly one HTTP call per Render; retrying is the caller's job.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

// New creates a client. The transport is instrumented with OpenTelemetry.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("render URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid render URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid render URL scheme %q", u.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "certgen-batch/1.0"
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		},
		url:       u.String(),
		userAgent: cfg.UserAgent,
	}, nil
}

// Render implements batch.Renderer.
func (c *Client) Render(ctx context.Context, req batch.RenderRequest) ([]byte, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(IdempotencyHeader, req.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &batch.RejectionError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) > maxPDFSize {
		return nil, ErrResponseTooLarge
	}
	// An empty document is retried like any other rejection.
	if len(data) == 0 {
		return nil, &batch.RejectionError{StatusCode: resp.StatusCode, Body: "empty response body"}
	}
	return data, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

var _ batch.Renderer = (*Client)(nil)
