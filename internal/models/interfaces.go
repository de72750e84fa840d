package models

import (
	"context"
	"time"
)

type Encryptor interface {
	Encrypt(value string) (encrypted string, err error)
	Decrypt(value string) (decrypted string, err error)
}

type IDGenerator interface {
	ID() (string, error)
}

type CredentialGetter interface {
	GetCredentials(ctx context.Context, setID string) (CredentialPair, error)
}

type CredentialSetter interface {
	SetCredentials(context.Context, CredentialPair) error
}

type CredentialRemover interface {
	RemoveCredentials(ctx context.Context, setID string) error
}

type ViewGetter interface {
	GetView(ctx context.Context, viewID string) (SavedView, error)
	GetViewIDs(ctx context.Context, createdAfter time.Time, createdBefore time.Time) ([]string, error)
}

type ViewSetter interface {
	SetView(context.Context, SavedView) error
}

type ViewRemover interface {
	RemoveView(context.Context, SavedView) error
}

// LifecycleEventPublisher publishes backend session lifecycle events for other
// services to consume.
type LifecycleEventPublisher interface {
	PublishSessionExpired(ctx context.Context, reason string) error
	PublishSessionRenewed(ctx context.Context, setID string) error
	PublishServiceLogin(ctx context.Context, setID string) error
}

// MetricsClient records product analytics events.
type MetricsClient interface {
	SessionExpired() error
	DatasetUploaded() error
	Close()
}
