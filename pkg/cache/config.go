package cache

import "time"

// RedisConfig holds Redis connection settings. Zero fields take the `default` tag.
type RedisConfig struct {
	Host         string        `default:"localhost" validate:"required"`
	Port         int           `default:"6379" validate:"min=1,max=65535"`
	Password     string
	DB           int           `validate:"min=0"`
	PoolSize     int           `default:"10" validate:"min=1"`
	MinIdleConns int           `default:"2"`
	PoolTimeout  time.Duration `default:"30s"`
	DialTimeout  time.Duration `default:"5s"`
	Prefix       string        `default:"marketsim"`
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	maxSize         int
	cleanupInterval time.Duration
}

// WithMemoryMaxSize bounds the entry count; the least recently used entry is evicted
// first. Zero or less means unbounded.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *memoryConfig) { c.maxSize = size }
}

// WithMemoryCleanup sets how often expired entries are swept.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}
