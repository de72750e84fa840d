package session

import "context"

// Renewer performs the credential renewal exchange against the backend. It is
// implemented on the bare transport so a renewal can never be rerouted through
// the dispatcher's own expiry handling.
type Renewer interface {
	Renew(ctx context.Context, renewalCredential string) (access string, renewal string, err error)
}

// CredentialStore is the slice of the credential store the coordinator needs.
type CredentialStore interface {
	Renewal(ctx context.Context) (string, error)
	Set(ctx context.Context, access string, renewal string) error
	Clear(ctx context.Context) error
}
