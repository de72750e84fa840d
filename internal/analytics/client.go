// Package analytics is the typed client for the quarry-core backend. Every
// method is a thin forward, the parameters travel to the backend untouched and
// all heavy lifting, outlier detection, downsampling, sensitivity analysis,
// happens server side. Calls run through the credential attaching dispatchers,
// binary downloads through the raw flavor so content headers survive.
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dispatch"
	"github.com/quarry-platform/quarry-dashboard/internal/transport"
)

// Caller issues calls whose successful JSON bodies are unwrapped.
type Caller interface {
	Do(ctx context.Context, call dispatch.Call, response any) error
}

// RawCaller issues calls and preserves the full exchange result.
type RawCaller interface {
	Do(ctx context.Context, call dispatch.Call) (transport.Result, error)
}

// Client talks to the quarry-core API.
type Client struct {
	caller        Caller
	raw           RawCaller
	uploadTimeout time.Duration
}

type ClientOption func(*Client) error

func WithCaller(caller Caller) ClientOption {
	return func(c *Client) error {
		c.caller = caller
		return nil
	}
}

func WithRawCaller(raw RawCaller) ClientOption {
	return func(c *Client) error {
		c.raw = raw
		return nil
	}
}

func WithUploadTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("upload timeout must be positive")
		}
		c.uploadTimeout = timeout
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	client := Client{uploadTimeout: DefaultUploadTimeout}
	for _, opt := range options {
		if err := opt(&client); err != nil {
			return nil, err
		}
	}
	if client.caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}
	if client.raw == nil {
		return nil, fmt.Errorf("raw caller cannot be nil")
	}
	return &client, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, response any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.caller.Do(ctx, dispatch.Call{Method: http.MethodGet, Path: path}, response)
}

func (c *Client) post(ctx context.Context, path string, payload any, response any) error {
	call, err := dispatch.JSONCall(http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return c.caller.Do(ctx, call, response)
}

func (c *Client) put(ctx context.Context, path string, payload any, response any) error {
	call, err := dispatch.JSONCall(http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	return c.caller.Do(ctx, call, response)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.caller.Do(ctx, dispatch.Call{Method: http.MethodDelete, Path: path}, nil)
}
