package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

// BackendConfig describes how to reach the quarry-core analytics backend.
type BackendConfig struct {
	BaseURL        *url.URL
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	Bootstrap      BootstrapConfig
}

// BootstrapConfig holds the service account credentials used to log in to the
// backend when the credential store holds no pair.
type BootstrapConfig struct {
	Enabled  bool
	Email    string
	Password models.RedactedString
}

func (c *BackendConfig) Validate() error {
	if c.BaseURL == nil {
		return fmt.Errorf("backend base URL is not set")
	}
	if c.Bootstrap.Enabled && (c.Bootstrap.Email == "" || c.Bootstrap.Password == "") {
		return fmt.Errorf("bootstrap login requires an email and a password")
	}
	return nil
}

// RenewalConfig tunes the credential renewal machinery.
type RenewalConfig struct {
	Cooldown      time.Duration
	CheckInterval time.Duration
	ExpiryMargin  time.Duration
}

func (c *RenewalConfig) Validate() error {
	if c.Cooldown < 0 || c.CheckInterval < 0 || c.ExpiryMargin < 0 {
		return fmt.Errorf("renewal durations cannot be negative")
	}
	return nil
}
