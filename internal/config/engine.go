package config

import (
	"fmt"

	"github.com/corewave/jobengine/internal/env"
)

// EngineConfig holds all configuration for the cmd/engine binary.
type EngineConfig struct {
	StoreURL      string `env:"STORE_URL"`
	TransportURL  string `env:"TRANSPORT_URL"`
	TickMS        int    `env:"ENGINE_TICK_MS"`
	DefaultPolicy string `env:"DEFAULT_POLICY"`
	StartupGraceS int    `env:"STARTUP_GRACE_S"`

	StoragePool StoragePoolConfig
	Redis       RedisConfig
	OTel        OTelConfig
}

// Validate checks the required connection strings are present.
func (c *EngineConfig) Validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("STORE_URL is required")
	}
	if c.TransportURL == "" {
		return fmt.Errorf("TRANSPORT_URL is required")
	}
	return nil
}

// LoadEngineConfig loads and validates cmd/engine's configuration from the
// environment.
func LoadEngineConfig() (*EngineConfig, error) {
	cfg := &EngineConfig{
		TickMS:        100,
		DefaultPolicy: "fcfs",
		StartupGraceS: 30,
		StoragePool:   defaultStoragePoolConfig(),
		Redis:         defaultRedisConfig(),
		OTel:          defaultOTelConfig("jobengine-engine"),
	}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	return cfg, nil
}
