package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/quarry-platform/quarry-dashboard/internal/credentials"
	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/session"
	"github.com/quarry-platform/quarry-dashboard/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check that the core components satisfy the interfaces the dispatchers
// consume. This test would fail to compile otherwise.
func TestCoreSatisfiesDispatcherInterfaces(t *testing.T) {
	var _ ExchangeTransport = &transport.Transport{}
	var _ AccessReader = &credentials.Store{}
	var _ RenewalCoordinator = &session.Coordinator{}
}

// recordingBackend remembers the Authorization header of every request the
// test server saw.
type recordingBackend struct {
	lock  sync.Mutex
	auths []string
}

func (r *recordingBackend) record(req *http.Request) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.auths = append(r.auths, req.Header.Get("Authorization"))
}

func (r *recordingBackend) seen() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string{}, r.auths...)
}

type stubRenewer struct {
	lock    sync.Mutex
	calls   int
	access  string
	renewal string
	err     error
}

func (s *stubRenewer) Renew(_ context.Context, _ string) (string, string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls++
	if s.err != nil {
		return "", "", s.err
	}
	return s.access, s.renewal, nil
}

func (s *stubRenewer) callCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}

func newTestStack(
	t *testing.T,
	handler http.Handler,
	renewer session.Renewer,
	hook session.ExpiryHook,
) (*Dispatcher, *RawDispatcher, *credentials.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	backendTransport, err := transport.NewTransport(transport.WithBaseURL(serverURL))
	require.NoError(t, err)
	store, err := credentials.NewStore(
		credentials.WithCredentialRepository(credentials.NewInMemoryCredentialRepository()),
	)
	require.NoError(t, err)
	coordinator, err := session.NewCoordinator(
		session.WithCredentialStore(store),
		session.WithRenewer(renewer),
		session.WithExpiryHook(hook),
	)
	require.NoError(t, err)
	options := []DispatcherOption{
		WithTransport(backendTransport),
		WithAccessReader(store),
		WithRenewalCoordinator(coordinator),
	}
	dispatcher, err := NewDispatcher(options...)
	require.NoError(t, err)
	raw, err := NewRawDispatcher(options...)
	require.NoError(t, err)
	return dispatcher, raw, store
}

type echoPayload struct {
	Value string `json:"value"`
}

func TestNewDispatcherValidation(t *testing.T) {
	_, err := NewDispatcher()
	assert.Error(t, err)
	_, err = NewRawDispatcher()
	assert.Error(t, err)
}

func TestJSONCall(t *testing.T) {
	call, err := JSONCall(http.MethodPost, "/datasets", map[string]string{"name": "readings"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/datasets", call.Path)
	assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"readings"}`, string(call.Body))
}

func TestDispatcherAttachesAccessCredential(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	})
	dispatcher, _, store := newTestStack(t, handler, &stubRenewer{}, session.NoopExpiryHook)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	var payload echoPayload
	err := dispatcher.Do(ctx, Call{Method: http.MethodGet, Path: "/datasets"}, &payload)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload.Value)
	assert.Equal(t, []string{"Bearer access-1"}, backend.seen())
}

func TestDispatcherSendsUnauthenticatedWithoutCredential(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	})
	dispatcher, _, _ := newTestStack(t, handler, &stubRenewer{}, session.NoopExpiryHook)

	err := dispatcher.Do(context.Background(), Call{Method: http.MethodGet, Path: "/health"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, backend.seen())
}

func TestDispatcherRenewsAndReplays(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"value":"renewed"}`))
	})
	renewer := &stubRenewer{access: "access-2", renewal: "renewal-2"}
	dispatcher, _, store := newTestStack(t, handler, renewer, session.NoopExpiryHook)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	var payload echoPayload
	err := dispatcher.Do(ctx, Call{Method: http.MethodGet, Path: "/datasets"}, &payload)
	require.NoError(t, err)
	assert.Equal(t, "renewed", payload.Value)

	// one exchange with the stale credential, one replay with the fresh one
	assert.Equal(t, []string{"Bearer access-1", "Bearer access-2"}, backend.seen())
	assert.Equal(t, 1, renewer.callCount())

	access, err := store.Access(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", access)
}

func TestSecondUnauthorizedSurfacesWithoutAnotherRenewal(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	renewer := &stubRenewer{access: "access-2", renewal: "renewal-2"}
	hookCalls := 0
	dispatcher, _, store := newTestStack(t, handler, renewer, func() { hookCalls++ })
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	err := dispatcher.Do(ctx, Call{Method: http.MethodGet, Path: "/datasets"}, nil)
	apiErr := &APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// the renewal itself succeeded, so the rejected replay is an ordinary
	// failure and must not start a second renewal
	assert.Equal(t, 2, len(backend.seen()))
	assert.Equal(t, 1, renewer.callCount())
	assert.Equal(t, 0, hookCalls)
}

func TestNonUnauthorizedFailureSurfaces(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"name must not be empty"}`))
	})
	renewer := &stubRenewer{}
	dispatcher, _, store := newTestStack(t, handler, renewer, session.NoopExpiryHook)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	err := dispatcher.Do(ctx, Call{Method: http.MethodPost, Path: "/datasets"}, nil)
	apiErr := &APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.JSONEq(t, `{"detail":"name must not be empty"}`, string(apiErr.Body))
	assert.Equal(t, 0, renewer.callCount())
}

func TestCredentialIssuingCallNeverRenews(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	renewer := &stubRenewer{access: "access-2", renewal: "renewal-2"}
	dispatcher, _, store := newTestStack(t, handler, renewer, session.NoopExpiryHook)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	call := Call{Method: http.MethodPost, Path: "/auth/session", CredentialIssuing: true}
	err := dispatcher.Do(ctx, call, nil)
	assert.ErrorIs(t, err, dasherrors.ErrInvalidCredentials)
	assert.Equal(t, 0, renewer.callCount())
	assert.Equal(t, 1, len(backend.seen()))
}

func TestRenewalFailureSurfacesAndClearsCredentials(t *testing.T) {
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	renewer := &stubRenewer{err: errors.New("renewal credential rejected")}
	hookCalls := 0
	dispatcher, _, store := newTestStack(t, handler, renewer, func() { hookCalls++ })
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	err := dispatcher.Do(ctx, Call{Method: http.MethodGet, Path: "/datasets"}, nil)
	assert.ErrorIs(t, err, dasherrors.ErrSessionExpired)
	assert.Equal(t, 1, hookCalls)
	assert.Equal(t, 1, len(backend.seen()))

	hasAccess, err := store.HasAccess(ctx)
	require.NoError(t, err)
	assert.False(t, hasAccess)
}

func TestRawDispatcherPreservesHeadersAndRenews(t *testing.T) {
	archive := []byte{0x1f, 0x8b, 0x08, 0x00, 0x42}
	backend := &recordingBackend{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="readings.csv.gz"`)
		_, _ = w.Write(archive)
	})
	renewer := &stubRenewer{access: "access-2", renewal: "renewal-2"}
	_, raw, store := newTestStack(t, handler, renewer, session.NoopExpiryHook)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "access-1", "renewal-1"))

	res, err := raw.Do(ctx, Call{Method: http.MethodGet, Path: "/datasets/ds-1/export"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, archive, res.Body)
	assert.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="readings.csv.gz"`, res.Header.Get("Content-Disposition"))
	assert.Equal(t, []string{"Bearer access-1", "Bearer access-2"}, backend.seen())
}
