package credentials

import (
	"context"
	"sync"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

// InMemoryCredentialRepository keeps credential pairs in process memory. Only
// suitable for testing, it has none of the durability the dispatcher relies on.
type InMemoryCredentialRepository struct {
	lock  *sync.RWMutex
	pairs map[string]models.CredentialPair
}

func (db *InMemoryCredentialRepository) GetCredentials(ctx context.Context, setID string) (models.CredentialPair, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	pair, found := db.pairs[setID]
	if !found {
		return models.CredentialPair{}, dasherrors.ErrCredentialsNotFound
	}
	return pair, nil
}

func (db *InMemoryCredentialRepository) SetCredentials(ctx context.Context, pair models.CredentialPair) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.pairs[pair.ID] = pair
	return nil
}

func (db *InMemoryCredentialRepository) RemoveCredentials(ctx context.Context, setID string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.pairs, setID)
	return nil
}

func NewInMemoryCredentialRepository() *InMemoryCredentialRepository {
	return &InMemoryCredentialRepository{lock: &sync.RWMutex{}, pairs: map[string]models.CredentialPair{}}
}
