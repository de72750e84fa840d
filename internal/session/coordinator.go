// Package session coordinates the credential renewal session with the
// analytics backend. A single Coordinator per process guarantees that at most
// one renewal exchange is in flight no matter how many calls discover an
// expired access credential at the same time.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
)

// DefaultCooldown is how long renewal attempts stay suppressed after a failure.
const DefaultCooldown = 5 * time.Second

type renewalResult struct {
	access string
	err    error
}

// Coordinator owns the renewal state: whether a renewal is in flight, the
// continuations of callers waiting on it, and the time of the last failure.
// All three are only touched under the lock so the "is a renewal in progress"
// check and the follow-up mutation always happen as one step.
type Coordinator struct {
	store    CredentialStore
	renewer  Renewer
	hook     ExpiryHook
	cooldown time.Duration
	now      func() time.Time

	lock        sync.Mutex
	refreshing  bool
	pending     []chan renewalResult
	lastFailure time.Time
}

// Renew returns a fresh access credential, renewing the pair at most once no
// matter how many callers ask concurrently. Callers that find a renewal already
// in flight are queued and woken in the order they arrived, without issuing a
// second exchange. Within the cooldown window after a failure the call fails
// fast without touching the network.
//
// A queued caller waits until the in-flight renewal settles; the wait itself
// cannot be cancelled, only the underlying exchange is bounded by a timeout.
func (c *Coordinator) Renew(ctx context.Context) (string, error) {
	c.lock.Lock()
	if c.refreshing {
		wait := make(chan renewalResult, 1)
		c.pending = append(c.pending, wait)
		queued := len(c.pending)
		c.lock.Unlock()
		slog.Debug("SESSION", "message", "joined in-flight renewal", "queued", queued)
		res := <-wait
		return res.access, res.err
	}
	if !c.lastFailure.IsZero() && c.now().Sub(c.lastFailure) < c.cooldown {
		c.lock.Unlock()
		slog.Debug("SESSION", "message", "renewal suppressed by cooldown")
		// same clearing and hook behavior as a failed renewal, minus the exchange
		_ = c.store.Clear(context.WithoutCancel(ctx))
		c.hook()
		return "", dasherrors.ErrRenewalSuppressed
	}
	c.refreshing = true
	c.lock.Unlock()

	return c.renew(ctx)
}

// renew runs the single in-flight renewal. The exchange is detached from the
// triggering call's cancellation: queued callers must not be rejected just
// because the caller that happened to start the renewal went away.
func (c *Coordinator) renew(ctx context.Context) (string, error) {
	rctx := context.WithoutCancel(ctx)

	renewalCredential, err := c.store.Renewal(rctx)
	if err != nil && err != dasherrors.ErrCredentialsNotFound {
		return "", c.settleFailure(rctx, err)
	}
	if err == dasherrors.ErrCredentialsNotFound || renewalCredential == "" {
		slog.Info("SESSION", "message", "no renewal credential, giving up without an exchange")
		return "", c.settleFailure(rctx, dasherrors.ErrNoRenewalCredential)
	}

	slog.Debug("SESSION", "message", "renewal started")
	access, renewal, err := c.renewer.Renew(rctx, renewalCredential)
	if err != nil {
		slog.Info("SESSION", "message", "renewal failed", "error", err)
		return "", c.settleFailure(rctx, fmt.Errorf("%w: %v", dasherrors.ErrSessionExpired, err))
	}

	// the pair must be durable before anyone is handed the new credential
	err = c.store.Set(rctx, access, renewal)
	if err != nil {
		slog.Error("SESSION", "message", "storing renewed credentials failed", "error", err)
		return "", c.settleFailure(rctx, fmt.Errorf("%w: %v", dasherrors.ErrSessionExpired, err))
	}

	c.settleSuccess(access)
	return access, nil
}

// settleSuccess stores the outcome and wakes every queued caller with the new
// access credential, in the order they joined.
func (c *Coordinator) settleSuccess(access string) {
	c.lock.Lock()
	pending := c.pending
	c.pending = nil
	c.refreshing = false
	c.lastFailure = time.Time{}
	c.lock.Unlock()

	slog.Debug("SESSION", "message", "renewal succeeded", "resolved", len(pending))
	for _, wait := range pending {
		wait <- renewalResult{access: access}
	}
}

// settleFailure clears the stored pair, rejects every queued caller in join
// order, stamps the failure time and fires the expiry hook exactly once for
// the whole cycle. It returns the error the leader should surface.
func (c *Coordinator) settleFailure(ctx context.Context, failure error) error {
	clearErr := c.store.Clear(ctx)
	if clearErr != nil {
		slog.Error("SESSION", "message", "clearing credentials after renewal failure failed", "error", clearErr)
	}

	c.lock.Lock()
	pending := c.pending
	c.pending = nil
	c.refreshing = false
	c.lastFailure = c.now()
	c.lock.Unlock()

	for _, wait := range pending {
		wait <- renewalResult{err: failure}
	}
	c.hook()
	return failure
}

type CoordinatorOption func(*Coordinator) error

func WithCredentialStore(store CredentialStore) CoordinatorOption {
	return func(c *Coordinator) error {
		c.store = store
		return nil
	}
}

func WithRenewer(renewer Renewer) CoordinatorOption {
	return func(c *Coordinator) error {
		c.renewer = renewer
		return nil
	}
}

func WithExpiryHook(hook ExpiryHook) CoordinatorOption {
	return func(c *Coordinator) error {
		c.hook = hook
		return nil
	}
}

func WithCooldown(cooldown time.Duration) CoordinatorOption {
	return func(c *Coordinator) error {
		if cooldown <= 0 {
			return fmt.Errorf("cooldown must be positive")
		}
		c.cooldown = cooldown
		return nil
	}
}

// NewCoordinator creates the renewal coordinator. One instance per process is
// shared by every dispatcher so the single-flight guarantee holds globally.
func NewCoordinator(options ...CoordinatorOption) (*Coordinator, error) {
	coordinator := Coordinator{
		hook:     NoopExpiryHook,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range options {
		err := opt(&coordinator)
		if err != nil {
			return &Coordinator{}, err
		}
	}
	if coordinator.store == nil {
		return &Coordinator{}, fmt.Errorf("credential store not initialized")
	}
	if coordinator.renewer == nil {
		return &Coordinator{}, fmt.Errorf("renewer not initialized")
	}
	return &coordinator, nil
}
