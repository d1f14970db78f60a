// Package api implements the HTTP clients for the assessment backend: question
// generation, per-question analysis, final aggregation, history, and report
// export. Every request carries the opaque bearer credential; the client never
// inspects or refreshes it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNetwork indicates the backend could not be reached.
	ErrNetwork = errors.New("backend unreachable")
	// ErrServer indicates the backend answered with a failure status.
	ErrServer = errors.New("backend request failed")
	// ErrTimeout indicates the request deadline elapsed.
	ErrTimeout = errors.New("backend request timed out")
)

// Client is the bearer-authed HTTP client shared by all backend operations.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a backend client. The token is attached verbatim as a
// bearer credential on every request.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// newRequest builds a request with auth and tracing headers applied.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do executes a request and classifies transport and status failures.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(req, err)
	}

	if c.logger != nil {
		c.logger.Debug("backend request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorDetail(resp.Body)
		_ = resp.Body.Close()
		if detail != "" {
			return nil, fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrServer, req.Method, req.URL.Path, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("%w: %s %s: HTTP %d", ErrServer, req.Method, req.URL.Path, resp.StatusCode)
	}
	return resp, nil
}

// doJSON executes a request and decodes a JSON response body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// classifyTransportError maps request failures onto the client error taxonomy.
func classifyTransportError(req *http.Request, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s: %v", ErrTimeout, req.Method, req.URL.Path, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s %s: %v", ErrTimeout, req.Method, req.URL.Path, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
}

// readErrorDetail extracts a bounded failure message from an error body.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
