package bytestore

import (
	"fmt"
)

// Backend identifiers accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and parameterizes a store backend.
type Config struct {
	// Backend is one of memory, file, sqlite, redis.
	Backend string

	// Path is the cache directory (file) or database path (sqlite).
	Path string

	// RedisURL is the connection URL for the redis backend.
	RedisURL string

	// MaxBytes caps the memory backend's total value size (0 = unbounded).
	MaxBytes int64
}

// Open constructs the configured store backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.MaxBytes), nil
	case BackendFile:
		return NewFileStore(cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendRedis:
		return NewRedisStore(RedisConfig{URL: cfg.RedisURL})
	default:
		return nil, fmt.Errorf("unknown byte store backend: %q", cfg.Backend)
	}
}
