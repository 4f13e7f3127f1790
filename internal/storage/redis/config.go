package redis

import "time"

// DefaultKeyPrefix namespaces move log keys
const DefaultKeyPrefix = "chessduel"

// Config holds Redis move log settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// KeyPrefix namespaces keys so several deployments can share a database
	KeyPrefix string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MoveTTL expires a room's move history this long after its last move.
	// Zero keeps history forever.
	MoveTTL time.Duration
}

// DefaultConfig returns the default Redis settings
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379/0",
		KeyPrefix:    DefaultKeyPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
