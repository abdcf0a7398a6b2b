package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devguard-labs/devguard/internal/model"
	"github.com/devguard-labs/devguard/internal/resolver"
	"github.com/rs/zerolog/log"
)

// Client talks to the DevGuard scanning service. Every call is bounded by the
// request context and the client timeout; failures are surfaced once and
// never retried.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a client for the given base URL. Trailing slashes are trimmed so
// joined paths stay well-formed.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Scan submits one specimen payload and returns the scored result.
func (c *Client) Scan(ctx context.Context, payload resolver.Payload) (*model.ScanResult, error) {
	return c.postResult(ctx, "/scan", payload)
}

// Apply asks the backend to remediate the given findings and re-score. The
// response is a complete replacement result, not a delta.
func (c *Client) Apply(ctx context.Context, ids []string) (*model.ScanResult, error) {
	return c.postResult(ctx, "/apply", map[string][]string{"ids": ids})
}

// Report fetches the rendered PDF artifact. Nothing is returned on failure,
// so callers never offer a partial download.
func (c *Client) Report(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/report.pdf", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("report request returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report body: %w", err)
	}
	return data, nil
}

func (c *Client) postResult(ctx context.Context, path string, body interface{}) (*model.ScanResult, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("path", path).Msg("Sending backend request")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s request returned %s", path, resp.Status)
	}

	var result model.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return &result, nil
}
