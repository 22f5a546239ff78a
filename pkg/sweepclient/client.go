/**
 * @description
 * Client used by the scheduler to trigger accrual and maturity sweeps on the API.
 */
package sweepclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stackvest/backend/internal/domain"
)

// Client calls the API's internal sweep endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a sweep client. Sweeps can take minutes on large books, so the timeout
// is supplied by the caller.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RunDailyGains triggers the daily gain sweep.
func (c *Client) RunDailyGains(ctx context.Context) (*domain.SweepResult, error) {
	return c.post(ctx, "/internal/sweeps/daily-gains")
}

// RunMaturity triggers the maturity sweep.
func (c *Client) RunMaturity(ctx context.Context) (*domain.SweepResult, error) {
	return c.post(ctx, "/internal/sweeps/maturity")
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api returned status %d", e.StatusCode)
}

func (c *Client) post(ctx context.Context, path string) (*domain.SweepResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("api base URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString("{}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	var result domain.SweepResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode sweep result: %w", err)
	}
	return &result, nil
}
