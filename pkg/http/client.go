package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medminer/internal/config"
	"medminer/pkg/circuitbreaker"
)

// Client is a custom HTTP client that wraps the standard http.Client and
// provides built-in circuit breaking for the external vocabulary services.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient creates a Client with a circuit breaker configured from cfg.
func NewClient(cfg config.CircuitBreakerConfig) (*Client, error) {
	hc := &http.Client{Timeout: 30 * time.Second}

	if !cfg.Enabled {
		return &Client{httpClient: hc, breaker: nil}, nil
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout %q: %w", cfg.Timeout, err)
	}

	return &Client{
		httpClient: hc,
		breaker:    circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout),
	}, nil
}

// Do executes an HTTP request with circuit breaker protection. Status codes
// >= 500 count as failures toward tripping the circuit.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response

	_, breakerErr := c.breaker.Execute(func() (any, error) {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return resp, nil
	})

	if breakerErr != nil {
		return nil, breakerErr
	}
	return resp, nil
}

// GetJSON issues a GET against base+path with the given query parameters
// and headers, decoding a 2xx JSON response body into out. A non-2xx status
// is returned as a *StatusError carrying the response body.
func (c *Client) GetJSON(ctx context.Context, base, path string, query url.Values, headers map[string]string, out any) error {
	u, err := joinURL(base, path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.doJSON(req, out)
}

// PostForm issues a form-encoded POST against the given URL, decoding a 2xx
// JSON response body into out.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// StatusError is returned for non-2xx responses so callers can log the
// status and body before deciding whether to propagate or degrade.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func joinURL(base, path string) (string, error) {
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}
