// Package httpclient provides a small HTTP client for talking to the remote
// trading data API.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is used when NewDefaultClient gets a zero timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize bounds the bytes read from a single response (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is sent with every request
	UserAgent = "bfx-report/1.0"
)

// Client performs HTTP requests and returns the response body.
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/checho651/bfx-report/internal/httpclient Client
type Client interface {
	// Get performs a GET request
	Get(ctx context.Context, url string) ([]byte, error)
	// Post performs a POST request with a JSON body and extra headers
	Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error)
}

// DefaultClient is the net/http based Client
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a client with the given timeout
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DefaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil)
}

// Post performs a POST request
func (c *DefaultClient) Post(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers)
}

func (c *DefaultClient) do(req *http.Request, headers map[string]string) ([]byte, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d exceeds maximum allowed size of %.2f MB",
			resp.ContentLength, float64(MaxResponseSize)/(1024*1024))
	}

	// Read one byte past the limit so an oversized body is detectable
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds maximum allowed size of %.2f MB",
			float64(MaxResponseSize)/(1024*1024))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPError(resp.StatusCode, req.URL.String(), string(data))
	}

	return data, nil
}
