package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dispatch"
	"github.com/quarry-platform/quarry-dashboard/internal/transport"
)

// Credentials is the pair quarry-core hands out on login, registration and
// renewal.
type Credentials struct {
	AccessCredential  string `json:"access_credential"`
	RenewalCredential string `json:"renewal_credential"`
}

// LoginRequest is the request body for POST /auth/session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges account credentials for a credential pair. A 401 here means
// the account credentials were wrong and is surfaced directly, it is never
// treated as an expired session.
func (c *Client) Login(ctx context.Context, request *LoginRequest) (*Credentials, error) {
	call, err := dispatch.JSONCall(http.MethodPost, "/auth/session", request)
	if err != nil {
		return nil, err
	}
	call.CredentialIssuing = true
	var pair Credentials
	if err := c.caller.Do(ctx, call, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// RegisterRequest is the request body for POST /auth/users.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates an account and returns its first credential pair.
func (c *Client) Register(ctx context.Context, request *RegisterRequest) (*Credentials, error) {
	call, err := dispatch.JSONCall(http.MethodPost, "/auth/users", request)
	if err != nil {
		return nil, err
	}
	call.CredentialIssuing = true
	var pair Credentials
	if err := c.caller.Do(ctx, call, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout invalidates the current session on the backend. The stored pair is
// the caller's to clear.
func (c *Client) Logout(ctx context.Context) error {
	return c.delete(ctx, "/auth/session")
}

// RenewalTransport is the slice of the transport the auth client renews over.
type RenewalTransport interface {
	Exchange(
		ctx context.Context,
		method string,
		path string,
		body []byte,
		header http.Header,
		timeout time.Duration,
	) (transport.Result, error)
}

// AuthClient performs the credential renewal exchange. It runs on the bare
// transport rather than a dispatcher, a failing renewal must never recurse
// into the expiry recovery it is part of.
type AuthClient struct {
	transport RenewalTransport
}

type renewalRequest struct {
	RenewalCredential string `json:"renewal_credential"`
}

// Renew trades the renewal credential for a fresh pair.
func (a *AuthClient) Renew(ctx context.Context, renewalCredential string) (string, string, error) {
	body, err := json.Marshal(renewalRequest{RenewalCredential: renewalCredential})
	if err != nil {
		return "", "", err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	res, err := a.transport.Exchange(ctx, http.MethodPost, "/auth/session/renew", body, header, 0)
	if err != nil {
		return "", "", err
	}
	if !res.Successful() {
		return "", "", fmt.Errorf("renewal rejected with status %d", res.StatusCode)
	}

	var pair Credentials
	if err := json.Unmarshal(res.Body, &pair); err != nil {
		return "", "", err
	}
	if pair.AccessCredential == "" || pair.RenewalCredential == "" {
		return "", "", fmt.Errorf("renewal response is missing a credential")
	}
	return pair.AccessCredential, pair.RenewalCredential, nil
}

type AuthClientOption func(*AuthClient) error

func WithRenewalTransport(renewalTransport RenewalTransport) AuthClientOption {
	return func(a *AuthClient) error {
		a.transport = renewalTransport
		return nil
	}
}

func NewAuthClient(options ...AuthClientOption) (*AuthClient, error) {
	client := AuthClient{}
	for _, opt := range options {
		if err := opt(&client); err != nil {
			return nil, err
		}
	}
	if client.transport == nil {
		return nil, fmt.Errorf("renewal transport cannot be nil")
	}
	return &client, nil
}
