// Package credentials holds the durable store for the access and renewal
// credential pair used to call the analytics backend.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultSetID names the single credential pair a dashboard process maintains.
const DefaultSetID = "backend"

type LimitedCredentialRepository interface {
	models.CredentialGetter
	models.CredentialSetter
	models.CredentialRemover
}

// Store is a typed pass-through to the persisted credential pair. It performs no
// validation of credential contents. Writes and clears go straight to the
// repository so they are durable before the call returns.
type Store struct {
	setID string
	repo  LimitedCredentialRepository
}

func (s *Store) get(ctx context.Context) (models.CredentialPair, error) {
	pair, err := s.repo.GetCredentials(ctx, s.setID)
	if err != nil {
		if err == redis.Nil {
			return models.CredentialPair{}, dasherrors.ErrCredentialsNotFound
		}
		return models.CredentialPair{}, err
	}
	return pair, nil
}

// Access returns the stored access credential. A missing pair surfaces as
// dasherrors.ErrCredentialsNotFound.
func (s *Store) Access(ctx context.Context) (string, error) {
	pair, err := s.get(ctx)
	if err != nil {
		return "", err
	}
	return pair.Access, nil
}

// Renewal returns the stored renewal credential. A missing pair surfaces as
// dasherrors.ErrCredentialsNotFound.
func (s *Store) Renewal(ctx context.Context) (string, error) {
	pair, err := s.get(ctx)
	if err != nil {
		return "", err
	}
	return pair.Renewal, nil
}

// Set stores both credentials as one pair. There is no way to write only one of
// the two values.
func (s *Store) Set(ctx context.Context, access string, renewal string) error {
	pair := models.CredentialPair{
		ID:        s.setID,
		Access:    access,
		Renewal:   renewal,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.SetCredentials(ctx, pair)
	if err != nil {
		slog.Error("CREDENTIAL STORE", "message", "SetCredentials failed", "error", err)
		return err
	}
	slog.Debug("CREDENTIAL STORE", "message", "stored credential pair", "credentials", pair)
	return nil
}

// Clear removes the pair. Clearing an already absent pair is not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := s.repo.RemoveCredentials(ctx, s.setID)
	if err != nil {
		slog.Error("CREDENTIAL STORE", "message", "RemoveCredentials failed", "error", err)
		return err
	}
	slog.Debug("CREDENTIAL STORE", "message", "cleared credential pair", "setID", s.setID)
	return nil
}

// HasAccess reports whether an access credential is currently stored.
func (s *Store) HasAccess(ctx context.Context) (bool, error) {
	pair, err := s.get(ctx)
	if err != nil {
		if err == dasherrors.ErrCredentialsNotFound {
			return false, nil
		}
		return false, err
	}
	return pair.Access != "", nil
}

type StoreOption func(*Store) error

func WithSetID(setID string) StoreOption {
	return func(s *Store) error {
		s.setID = setID
		return nil
	}
}

func WithCredentialRepository(repo LimitedCredentialRepository) StoreOption {
	return func(s *Store) error {
		s.repo = repo
		return nil
	}
}

func NewStore(options ...StoreOption) (*Store, error) {
	store := Store{setID: DefaultSetID}
	for _, opt := range options {
		err := opt(&store)
		if err != nil {
			return &Store{}, err
		}
	}
	if store.setID == "" {
		return &Store{}, fmt.Errorf("credential set ID cannot be empty")
	}
	if store.repo == nil {
		return &Store{}, fmt.Errorf("credential repository not initialized")
	}
	return &store, nil
}
