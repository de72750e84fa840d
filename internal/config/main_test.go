package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getValidConfig(t *testing.T) Config {
	baseURL, err := url.Parse("https://core.quarry.internal")
	require.NoError(t, err)
	return Config{
		RunningEnvironment: Production,
		Backend: BackendConfig{
			BaseURL:        baseURL,
			RequestTimeout: 30 * time.Second,
			UploadTimeout:  5 * time.Minute,
			Bootstrap: BootstrapConfig{
				Enabled:  true,
				Email:    "dashboard@quarry.internal",
				Password: "bootstrap-password",
			},
		},
		Renewal: RenewalConfig{
			Cooldown:      5 * time.Second,
			CheckInterval: time.Minute,
			ExpiryMargin:  3 * time.Minute,
		},
		Redis: getValidRedisConfig(),
	}
}

func TestValidConfig(t *testing.T) {
	config := getValidConfig(t)

	err := config.Validate()

	assert.NoError(t, err)
}

func TestMissingBackendBaseURL(t *testing.T) {
	config := getValidConfig(t)
	config.Backend.BaseURL = nil

	err := config.Validate()

	assert.ErrorContains(t, err, "backend base URL is not set")
}

func TestBootstrapWithoutPassword(t *testing.T) {
	config := getValidConfig(t)
	config.Backend.Bootstrap.Password = ""

	err := config.Validate()

	assert.ErrorContains(t, err, "bootstrap login requires")
}

func TestNegativeRenewalCooldown(t *testing.T) {
	config := getValidConfig(t)
	config.Renewal.Cooldown = -time.Second

	err := config.Validate()

	assert.ErrorContains(t, err, "cannot be negative")
}
