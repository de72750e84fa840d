// Package transport issues single HTTP exchanges against the analytics backend
// and returns the full status, body and headers of each response.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one exchange unless the call overrides it. Long-running
// operations such as dataset uploads pass their own, much larger value.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read into memory.
const DefaultMaxBodyBytes int64 = 128 << 20

// Result is the outcome of one completed HTTP exchange.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Successful reports whether the exchange ended in a 2xx status.
func (r Result) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs one HTTP exchange per call. It carries no authentication
// and no retry logic, those belong to the dispatcher above it.
type Transport struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// Exchange issues a single HTTP call and returns its full result. A non-2xx
// status is not an error here; errors mean no usable response was received.
func (t *Transport) Exchange(
	ctx context.Context,
	method string,
	path string,
	body []byte,
	header http.Header,
	timeout time.Duration,
) (Result, error) {
	if timeout <= 0 {
		timeout = t.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return Result{}, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes+1))
	if err != nil {
		return Result{}, err
	}
	if int64(len(respBody)) > t.maxBodyBytes {
		return Result{}, fmt.Errorf("response body exceeds %d bytes", t.maxBodyBytes)
	}

	slog.Debug(
		"TRANSPORT",
		"message",
		"completed exchange",
		"method",
		method,
		"path",
		path,
		"status",
		resp.StatusCode,
		"elapsed",
		time.Since(start),
	)

	return Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}

type TransportOption func(*Transport) error

func WithBaseURL(baseURL *url.URL) TransportOption {
	return func(t *Transport) error {
		if baseURL == nil {
			return fmt.Errorf("base URL cannot be nil")
		}
		t.baseURL = strings.TrimRight(baseURL.String(), "/")
		return nil
	}
}

func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) error {
		t.httpClient = client
		return nil
	}
}

func WithDefaultTimeout(timeout time.Duration) TransportOption {
	return func(t *Transport) error {
		if timeout <= 0 {
			return fmt.Errorf("default timeout must be positive")
		}
		t.timeout = timeout
		return nil
	}
}

func WithMaxBodyBytes(max int64) TransportOption {
	return func(t *Transport) error {
		if max <= 0 {
			return fmt.Errorf("max body bytes must be positive")
		}
		t.maxBodyBytes = max
		return nil
	}
}

func NewTransport(options ...TransportOption) (*Transport, error) {
	t := Transport{
		httpClient:   &http.Client{},
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range options {
		err := opt(&t)
		if err != nil {
			return &Transport{}, err
		}
	}
	if t.baseURL == "" {
		return &Transport{}, fmt.Errorf("base URL not initialized")
	}
	return &t, nil
}
