package config

import (
	"fmt"

	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

type RedisConfig struct {
	Type       string
	Addresses  []string
	IsSentinel bool
	Password   models.RedactedString
	MasterName string
	DBIndex    int
	// EncryptionKey encrypts credential values at rest when set. AES-256
	// requires exactly 32 bytes.
	EncryptionKey models.RedactedString
}

const DBTypeRedis string = "redis"
const DBTypeRedisMock string = "redis-mock"

func (c RedisConfig) Validate(e RunningEnvironment) error {
	if e != Development && c.Type == DBTypeRedisMock {
		return fmt.Errorf("redis type cannot be \"redis-mock\" in production")
	}
	if c.EncryptionKey != "" && len(c.EncryptionKey) != 32 {
		return fmt.Errorf("the redis encryption key must be 32 bytes long, the provided one is %d bytes", len(c.EncryptionKey))
	}
	return nil
}
