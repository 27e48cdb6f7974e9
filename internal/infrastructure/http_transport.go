package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Transport performs a single GET and returns the status code and full body
type Transport interface {
	Get(ctx context.Context, url string, headers http.Header) (int, []byte, error)
}

// HTTPTransport implements Transport on top of net/http
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPTransport creates a transport; timeouts come from the caller's context
func NewHTTPTransport(userAgent string, maxBytes int64) *HTTPTransport {
	return &HTTPTransport{
		client:    &http.Client{},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Get performs the request and reads at most maxBytes of the body
func (t *HTTPTransport) Get(ctx context.Context, url string, headers http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if t.maxBytes > 0 {
		body = io.LimitReader(resp.Body, t.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if t.maxBytes > 0 && int64(len(data)) > t.maxBytes {
		return resp.StatusCode, nil, fmt.Errorf("response body exceeds %d bytes", t.maxBytes)
	}
	return resp.StatusCode, data, nil
}
