package config

import (
	"fmt"

	"github.com/corewave/jobengine/internal/env"
)

// ServerConfig holds all configuration for the cmd/server binary.
type ServerConfig struct {
	StoreURL          string `env:"STORE_URL"`
	TransportURL      string `env:"TRANSPORT_URL"`
	HTTPPort          int    `env:"HTTP_PORT"`
	HTTPReadTimeoutS  int    `env:"HTTP_READ_TIMEOUT_S"`
	HTTPWriteTimeoutS int    `env:"HTTP_WRITE_TIMEOUT_S"`
	HTTPIdleTimeoutS  int    `env:"HTTP_IDLE_TIMEOUT_S"`
	MaxBodyBytes      int64  `env:"MAX_BODY_BYTES"`

	// WorkerPoolSize is informational: the server process reports it from
	// the /scheduler endpoint but does not run a pool itself. It should
	// match the WORKER_POOL_SIZE the cmd/worker fleet was started with.
	WorkerPoolSize int `env:"WORKER_POOL_SIZE"`

	StoragePool StoragePoolConfig
	Redis       RedisConfig
	OTel        OTelConfig
	Pagination  PaginationConfig
}

// Validate checks the required connection strings are present.
func (c *ServerConfig) Validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("STORE_URL is required")
	}
	if c.TransportURL == "" {
		return fmt.Errorf("TRANSPORT_URL is required")
	}
	return nil
}

// LoadServerConfig loads and validates cmd/server's configuration from the
// environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		HTTPPort:          8080,
		HTTPReadTimeoutS:  15,
		HTTPWriteTimeoutS: 15,
		HTTPIdleTimeoutS:  60,
		MaxBodyBytes:      1 << 20,
		WorkerPoolSize:    4,
		StoragePool:       defaultStoragePoolConfig(),
		Redis:             defaultRedisConfig(),
		OTel:              defaultOTelConfig("jobengine-server"),
		Pagination:        defaultPaginationConfig(),
	}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	return cfg, nil
}
