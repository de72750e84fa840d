// Package refresher renews the credential pair ahead of its expiry so that
// interactive calls rarely run into a 401 and pay the renewal round trip.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/golang-jwt/jwt/v4"
	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
)

const DefaultCheckInterval = time.Minute

// DefaultExpiryMargin is how close to its expiry an access credential may get
// before the refresher renews the pair.
const DefaultExpiryMargin = 3 * time.Minute

// CredentialSource yields the currently stored access credential.
type CredentialSource interface {
	Access(ctx context.Context) (string, error)
}

// RenewalCoordinator is the same single flight coordinator the dispatchers
// use, a scheduled renewal and an expiry triggered one must never race each
// other into two exchanges.
type RenewalCoordinator interface {
	Renew(ctx context.Context) (string, error)
}

type Refresher struct {
	credentials CredentialSource
	coordinator RenewalCoordinator
	interval    time.Duration
	margin      time.Duration
	scheduler   *gocron.Scheduler
	now         func() time.Time
}

// Start schedules the periodic expiry check. It returns once the job is
// registered, the checks run on the scheduler's own goroutine until Stop.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.scheduler.Every(r.interval).Do(func() {
		if err := r.RefreshIfExpiring(ctx); err != nil {
			slog.Error("REFRESHER", "message", "refresh ahead failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	slog.Info("REFRESHER", "message", "refresh ahead scheduled", "interval", r.interval, "margin", r.margin)
	return nil
}

func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

// RefreshIfExpiring renews the pair when the stored access credential expires
// within the margin. A missing pair is not an error, there is nothing to keep
// fresh. An access credential without a readable expiry is left alone, the
// dispatchers recover from its expiry on first use.
func (r *Refresher) RefreshIfExpiring(ctx context.Context) error {
	access, err := r.credentials.Access(ctx)
	if err == dasherrors.ErrCredentialsNotFound {
		slog.Debug("REFRESHER", "message", "no stored pair, nothing to refresh")
		return nil
	}
	if err != nil {
		return err
	}

	expiry, err := credentialExpiry(access)
	if err != nil {
		slog.Warn("REFRESHER", "message", "cannot read the credential expiry", "error", err)
		return nil
	}
	remaining := expiry.Sub(r.now())
	if remaining > r.margin {
		return nil
	}

	slog.Info("REFRESHER", "message", "access credential close to expiry, renewing", "remaining", remaining)
	_, err = r.coordinator.Renew(ctx)
	return err
}

// credentialExpiry reads the exp claim without verifying the signature. The
// backend is the only party that has to trust the credential, the refresher
// only needs the timestamp.
func credentialExpiry(access string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access credential carries no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

type RefresherOption func(*Refresher) error

func WithCredentialSource(credentials CredentialSource) RefresherOption {
	return func(r *Refresher) error {
		r.credentials = credentials
		return nil
	}
}

func WithRenewalCoordinator(coordinator RenewalCoordinator) RefresherOption {
	return func(r *Refresher) error {
		r.coordinator = coordinator
		return nil
	}
}

func WithCheckInterval(interval time.Duration) RefresherOption {
	return func(r *Refresher) error {
		if interval <= 0 {
			return fmt.Errorf("check interval must be positive")
		}
		r.interval = interval
		return nil
	}
}

func WithExpiryMargin(margin time.Duration) RefresherOption {
	return func(r *Refresher) error {
		if margin <= 0 {
			return fmt.Errorf("expiry margin must be positive")
		}
		r.margin = margin
		return nil
	}
}

func NewRefresher(options ...RefresherOption) (*Refresher, error) {
	refresher := Refresher{
		interval:  DefaultCheckInterval,
		margin:    DefaultExpiryMargin,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
	for _, opt := range options {
		if err := opt(&refresher); err != nil {
			return nil, err
		}
	}
	if refresher.credentials == nil {
		return nil, fmt.Errorf("credential source cannot be nil")
	}
	if refresher.coordinator == nil {
		return nil, fmt.Errorf("renewal coordinator cannot be nil")
	}
	return &refresher, nil
}
