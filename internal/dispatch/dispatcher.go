// Package dispatch sends calls to the analytics backend with the current
// access credential attached and recovers from credential expiry. Two flavors
// exist, the regular dispatcher that unwraps JSON response bodies and the raw
// dispatcher that hands back the full exchange result including headers for
// binary downloads. Both run the exact same pre flight and recovery logic and
// are meant to share a single renewal coordinator.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/transport"
)

// ExchangeTransport is the slice of the transport the dispatchers need.
type ExchangeTransport interface {
	Exchange(
		ctx context.Context,
		method string,
		path string,
		body []byte,
		header http.Header,
		timeout time.Duration,
	) (transport.Result, error)
}

// AccessReader yields the currently stored access credential.
type AccessReader interface {
	Access(ctx context.Context) (string, error)
}

// RenewalCoordinator renews the credential pair, issuing at most one exchange
// regardless of how many callers ask concurrently.
type RenewalCoordinator interface {
	Renew(ctx context.Context) (string, error)
}

// APIError carries a non success response from the backend.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// caller holds the pre flight and recovery logic shared by both dispatcher
// flavors.
type caller struct {
	transport   ExchangeTransport
	credentials AccessReader
	coordinator RenewalCoordinator
}

// send issues the call with the access credential attached when one exists.
// A 401 on a non credential-issuing call that has not been replayed yet is
// handed to the coordinator, the call is then reissued once with the renewed
// credential. Transport level failures are returned unchanged and never
// trigger a renewal.
func (c *caller) send(ctx context.Context, call Call) (transport.Result, error) {
	access, err := c.credentials.Access(ctx)
	if err != nil && err != dasherrors.ErrCredentialsNotFound {
		return transport.Result{}, err
	}

	for {
		res, err := c.transport.Exchange(
			ctx,
			call.Method,
			call.Path,
			call.Body,
			authorizedHeader(call.Header, access),
			call.Timeout,
		)
		if err != nil {
			return transport.Result{}, err
		}
		if res.Successful() {
			return res, nil
		}
		if res.StatusCode != http.StatusUnauthorized || call.CredentialIssuing || call.retried {
			return transport.Result{}, classifyFailure(call, res)
		}

		slog.Debug("DISPATCH", "message", "access credential expired, renewing", "method", call.Method, "path", call.Path)
		access, err = c.coordinator.Renew(ctx)
		if err != nil {
			return transport.Result{}, err
		}
		call.retried = true
	}
}

// authorizedHeader copies the call headers and attaches the access credential
// when one is present, otherwise the call goes out unauthenticated.
func authorizedHeader(header http.Header, access string) http.Header {
	authorized := http.Header{}
	for key, values := range header {
		for _, value := range values {
			authorized.Add(key, value)
		}
	}
	if access != "" {
		authorized.Set("Authorization", "Bearer "+access)
	}
	return authorized
}

func classifyFailure(call Call, res transport.Result) error {
	if res.StatusCode == http.StatusUnauthorized && call.CredentialIssuing {
		return dasherrors.ErrInvalidCredentials
	}
	return &APIError{StatusCode: res.StatusCode, Body: res.Body}
}

// Dispatcher issues backend calls and unwraps successful JSON bodies. Almost
// every call site uses this flavor.
type Dispatcher struct {
	caller
}

// Do sends the call and decodes the response body into response when it is
// not nil. Failed exchanges come back as errors only, see APIError.
func (d *Dispatcher) Do(ctx context.Context, call Call, response any) error {
	res, err := d.send(ctx, call)
	if err != nil {
		return err
	}
	if response == nil || len(res.Body) == 0 {
		return nil
	}
	return json.Unmarshal(res.Body, response)
}

// RawDispatcher issues backend calls and preserves the full exchange result.
// Binary downloads need the headers for content type and disposition.
type RawDispatcher struct {
	caller
}

// Do sends the call and returns the full result of the exchange. The failure
// classification is identical to the regular dispatcher.
func (d *RawDispatcher) Do(ctx context.Context, call Call) (transport.Result, error) {
	return d.send(ctx, call)
}

type DispatcherOption func(*caller) error

func WithTransport(exchanger ExchangeTransport) DispatcherOption {
	return func(c *caller) error {
		c.transport = exchanger
		return nil
	}
}

func WithAccessReader(credentials AccessReader) DispatcherOption {
	return func(c *caller) error {
		c.credentials = credentials
		return nil
	}
}

func WithRenewalCoordinator(coordinator RenewalCoordinator) DispatcherOption {
	return func(c *caller) error {
		c.coordinator = coordinator
		return nil
	}
}

func newCaller(options ...DispatcherOption) (caller, error) {
	c := caller{}
	for _, opt := range options {
		if err := opt(&c); err != nil {
			return caller{}, err
		}
	}
	if c.transport == nil {
		return caller{}, fmt.Errorf("transport cannot be nil")
	}
	if c.credentials == nil {
		return caller{}, fmt.Errorf("access reader cannot be nil")
	}
	if c.coordinator == nil {
		return caller{}, fmt.Errorf("renewal coordinator cannot be nil")
	}
	return c, nil
}

// NewDispatcher creates the body unwrapping dispatcher flavor.
func NewDispatcher(options ...DispatcherOption) (*Dispatcher, error) {
	c, err := newCaller(options...)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{caller: c}, nil
}

// NewRawDispatcher creates the dispatcher flavor that preserves headers.
// Both flavors are expected to share one renewal coordinator so that
// expiries discovered through either one join the same renewal.
func NewRawDispatcher(options ...DispatcherOption) (*RawDispatcher, error) {
	c, err := newCaller(options...)
	if err != nil {
		return nil, err
	}
	return &RawDispatcher{caller: c}, nil
}
