package config

import (
	"fmt"

	"github.com/corewave/jobengine/internal/env"
)

// WorkerConfig holds all configuration for the cmd/worker binary.
type WorkerConfig struct {
	StoreURL          string `env:"STORE_URL"`
	TransportURL      string `env:"TRANSPORT_URL"`
	PoolSize          int    `env:"WORKER_POOL_SIZE"`
	PopTimeoutS       int    `env:"WORKER_POP_TIMEOUT_S"`
	DefaultMaxRetries int    `env:"DEFAULT_MAX_RETRIES"`
	StartupGraceS     int    `env:"STARTUP_GRACE_S"`

	StoragePool StoragePoolConfig
	Redis       RedisConfig
	OTel        OTelConfig
}

// Validate checks the required connection strings are present.
func (c *WorkerConfig) Validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("STORE_URL is required")
	}
	if c.TransportURL == "" {
		return fmt.Errorf("TRANSPORT_URL is required")
	}
	return nil
}

// LoadWorkerConfig loads and validates cmd/worker's configuration from the
// environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{
		PoolSize:          4,
		PopTimeoutS:       5,
		DefaultMaxRetries: 3,
		StartupGraceS:     30,
		StoragePool:       defaultStoragePoolConfig(),
		Redis:             defaultRedisConfig(),
		OTel:              defaultOTelConfig("jobengine-worker"),
	}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("load worker config: %w", err)
	}
	return cfg, nil
}
