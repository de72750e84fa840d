package refresher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jose "gopkg.in/square/go-jose.v2"
)

type fakeSource struct {
	access string
	err    error
}

func (f *fakeSource) Access(_ context.Context) (string, error) {
	return f.access, f.err
}

type fakeCoordinator struct {
	calls int
	err   error
}

func (f *fakeCoordinator) Renew(_ context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "access-2", nil
}

// mintAccessCredential signs a minimal JWT carrying the given expiry.
func mintAccessCredential(t *testing.T, claims map[string]any) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte("0123456789abcdef0123456789abcdef")},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	signed, err := signer.Sign(payload)
	require.NoError(t, err)
	token, err := signed.CompactSerialize()
	require.NoError(t, err)
	return token
}

func newTestRefresher(t *testing.T, source *fakeSource, coordinator *fakeCoordinator, now time.Time) *Refresher {
	t.Helper()
	refresher, err := NewRefresher(
		WithCredentialSource(source),
		WithRenewalCoordinator(coordinator),
	)
	require.NoError(t, err)
	refresher.now = func() time.Time { return now }
	return refresher
}

func TestNewRefresherValidation(t *testing.T) {
	_, err := NewRefresher(WithRenewalCoordinator(&fakeCoordinator{}))
	assert.Error(t, err)
	_, err = NewRefresher(WithCredentialSource(&fakeSource{}))
	assert.Error(t, err)
	_, err = NewRefresher(
		WithCredentialSource(&fakeSource{}),
		WithRenewalCoordinator(&fakeCoordinator{}),
		WithCheckInterval(0),
	)
	assert.Error(t, err)
}

func TestRenewsWhenCloseToExpiry(t *testing.T) {
	now := time.Now()
	access := mintAccessCredential(t, map[string]any{
		"sub": "quarry-dashboard",
		"exp": now.Add(time.Minute).Unix(),
	})
	coordinator := &fakeCoordinator{}
	refresher := newTestRefresher(t, &fakeSource{access: access}, coordinator, now)

	require.NoError(t, refresher.RefreshIfExpiring(context.Background()))
	assert.Equal(t, 1, coordinator.calls)
}

func TestLeavesFreshCredentialAlone(t *testing.T) {
	now := time.Now()
	access := mintAccessCredential(t, map[string]any{
		"sub": "quarry-dashboard",
		"exp": now.Add(time.Hour).Unix(),
	})
	coordinator := &fakeCoordinator{}
	refresher := newTestRefresher(t, &fakeSource{access: access}, coordinator, now)

	require.NoError(t, refresher.RefreshIfExpiring(context.Background()))
	assert.Equal(t, 0, coordinator.calls)
}

func TestEmptyStoreIsNotAnError(t *testing.T) {
	coordinator := &fakeCoordinator{}
	source := &fakeSource{err: dasherrors.ErrCredentialsNotFound}
	refresher := newTestRefresher(t, source, coordinator, time.Now())

	require.NoError(t, refresher.RefreshIfExpiring(context.Background()))
	assert.Equal(t, 0, coordinator.calls)
}

func TestOpaqueCredentialIsLeftToTheDispatchers(t *testing.T) {
	coordinator := &fakeCoordinator{}
	refresher := newTestRefresher(t, &fakeSource{access: "not-a-jwt"}, coordinator, time.Now())

	require.NoError(t, refresher.RefreshIfExpiring(context.Background()))
	assert.Equal(t, 0, coordinator.calls)
}

func TestCredentialWithoutExpiryIsLeftAlone(t *testing.T) {
	access := mintAccessCredential(t, map[string]any{"sub": "quarry-dashboard"})
	coordinator := &fakeCoordinator{}
	refresher := newTestRefresher(t, &fakeSource{access: access}, coordinator, time.Now())

	require.NoError(t, refresher.RefreshIfExpiring(context.Background()))
	assert.Equal(t, 0, coordinator.calls)
}

func TestRenewalErrorSurfaces(t *testing.T) {
	now := time.Now()
	access := mintAccessCredential(t, map[string]any{
		"sub": "quarry-dashboard",
		"exp": now.Add(time.Minute).Unix(),
	})
	coordinator := &fakeCoordinator{err: errors.New("renewal credential rejected")}
	refresher := newTestRefresher(t, &fakeSource{access: access}, coordinator, now)

	err := refresher.RefreshIfExpiring(context.Background())
	assert.EqualError(t, err, "renewal credential rejected")
}
