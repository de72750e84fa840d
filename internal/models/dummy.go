package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
)

// DummyDBAdapter is an in memory DBAdapter used in tests.
type DummyDBAdapter struct {
	lock  *sync.RWMutex
	pairs map[string]CredentialPair
	views map[string]SavedView
}

type DummyAdapterOption func(*DummyDBAdapter)

func WithCredentialPairs(pairs ...CredentialPair) DummyAdapterOption {
	return func(d *DummyDBAdapter) {
		for _, pair := range pairs {
			d.pairs[pair.ID] = pair
		}
	}
}

func WithSavedViews(views ...SavedView) DummyAdapterOption {
	return func(d *DummyDBAdapter) {
		for _, view := range views {
			d.views[view.ID] = view
		}
	}
}

func NewDummyDBAdapter(options ...DummyAdapterOption) DummyDBAdapter {
	db := DummyDBAdapter{lock: &sync.RWMutex{}, pairs: map[string]CredentialPair{}, views: map[string]SavedView{}}
	for _, opt := range options {
		opt(&db)
	}
	return db
}

func (d *DummyDBAdapter) GetCredentials(ctx context.Context, setID string) (CredentialPair, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	pair, found := d.pairs[setID]
	if !found {
		return CredentialPair{}, dasherrors.ErrCredentialsNotFound
	}
	return pair, nil
}

func (d *DummyDBAdapter) SetCredentials(ctx context.Context, pair CredentialPair) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.pairs[pair.ID] = pair
	return nil
}

func (d *DummyDBAdapter) RemoveCredentials(ctx context.Context, setID string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.pairs, setID)
	return nil
}

func (d *DummyDBAdapter) GetView(ctx context.Context, viewID string) (SavedView, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	view, found := d.views[viewID]
	if !found {
		return SavedView{}, dasherrors.ErrViewNotFound
	}
	return view, nil
}

func (d *DummyDBAdapter) SetView(ctx context.Context, view SavedView) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.views[view.ID] = view
	return nil
}

func (d *DummyDBAdapter) RemoveView(ctx context.Context, view SavedView) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, found := d.views[view.ID]
	if !found {
		return nil
	}
	delete(d.views, view.ID)
	return nil
}

func (d *DummyDBAdapter) GetViewIDs(ctx context.Context, createdAfter time.Time, createdBefore time.Time) ([]string, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	var inRange []SavedView
	for _, view := range d.views {
		if view.CreatedAt.Before(createdAfter) || view.CreatedAt.After(createdBefore) {
			continue
		}
		inRange = append(inRange, view)
	}
	sort.Slice(inRange, func(i, j int) bool {
		return inRange[i].CreatedAt.Before(inRange[j].CreatedAt)
	})
	var viewIDs []string
	for _, view := range inRange {
		viewIDs = append(viewIDs, view.ID)
	}
	return viewIDs, nil
}

// DummyLifecycleEventPublisher drops every event.
type DummyLifecycleEventPublisher struct{}

func (DummyLifecycleEventPublisher) PublishSessionExpired(ctx context.Context, reason string) error {
	return nil
}

func (DummyLifecycleEventPublisher) PublishSessionRenewed(ctx context.Context, setID string) error {
	return nil
}

func (DummyLifecycleEventPublisher) PublishServiceLogin(ctx context.Context, setID string) error {
	return nil
}

// DummyMetricsClient ignores every metric.
type DummyMetricsClient struct{}

func (DummyMetricsClient) SessionExpired() error { return nil }

func (DummyMetricsClient) DatasetUploaded() error { return nil }

func (DummyMetricsClient) Close() {}
