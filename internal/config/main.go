package config

import (
	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

type RunningEnvironment string

const Development RunningEnvironment = "development"
const Production RunningEnvironment = "production"

type Config struct {
	RunningEnvironment RunningEnvironment
	DebugMode          bool
	Server             ServerConfig
	Backend            BackendConfig
	Renewal            RenewalConfig
	Redis              RedisConfig
	Events             EventsConfig
	Monitoring         MonitoringConfig
}

type DBAdapter interface {
	models.CredentialGetter
	models.CredentialSetter
	models.CredentialRemover
	models.ViewGetter
	models.ViewSetter
	models.ViewRemover
}

type ServerConfig struct {
	Host        string
	Port        int
	RateLimits  RateLimits
	AllowOrigin []string
}

type RateLimits struct {
	Enabled bool
	Rate    float64
	Burst   int
}

func (c *Config) Validate() error {
	err := c.Backend.Validate()
	if err != nil {
		return err
	}
	err = c.Renewal.Validate()
	if err != nil {
		return err
	}
	err = c.Redis.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	return nil
}
