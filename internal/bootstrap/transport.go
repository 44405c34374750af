package bootstrap

import (
	"time"

	"github.com/corewave/jobengine/internal/config"
	"github.com/corewave/jobengine/internal/transport/redistransport"
)

// OpenTransport opens the Ready Transport backed by Redis at redisURL.
func OpenTransport(redisURL string, cfg config.RedisConfig) (*redistransport.Transport, error) {
	return redistransport.New(redisURL, "jobengine", redistransport.Config{
		PoolSize:     cfg.PoolSize,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Millisecond,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	})
}
