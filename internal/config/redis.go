package config

// RedisConfig holds connection tuning for the Ready Transport's Redis
// client.
type RedisConfig struct {
	PoolSize     int `env:"REDIS_POOL_SIZE"`
	DialTimeout  int `env:"REDIS_DIAL_TIMEOUT_MS"`
	ReadTimeout  int `env:"REDIS_READ_TIMEOUT_MS"`
	WriteTimeout int `env:"REDIS_WRITE_TIMEOUT_MS"`
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		PoolSize:     10,
		DialTimeout:  5000,
		ReadTimeout:  3000,
		WriteTimeout: 3000,
	}
}
