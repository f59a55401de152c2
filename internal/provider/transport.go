package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport delivers a backend-built request and hands back the raw
// response body. An error means no usable response arrived; HTTP error
// statuses still return the body, because backends fold server-reported
// failures (bad credentials among them) into their response parsing.
type Transport interface {
	Send(ctx context.Context, req *http.Request) ([]byte, error)
}

const defaultTimeout = 30 * time.Second

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport with the given timeout; zero or
// negative values use the default.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, req *http.Request) ([]byte, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("transport is not initialized")
	}
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	resp, err := t.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
