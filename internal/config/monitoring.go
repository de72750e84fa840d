package config

import "github.com/quarry-platform/quarry-dashboard/internal/models"

type SentryConfig struct {
	Enabled     bool
	Dsn         models.RedactedString
	Environment string
	SampleRate  float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type PosthogConfig struct {
	Enabled     bool
	ApiKey      models.RedactedString
	Host        string
	Environment string
}

type MonitoringConfig struct {
	Sentry     SentryConfig
	Prometheus PrometheusConfig
	Posthog    PosthogConfig
}
