package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTLs. Fleets and the move log expire with their game.
	GuestPlayerTTL time.Duration
	LobbyTTL       time.Duration
	GameTTL        time.Duration

	// MaxTxRetries bounds how often a compare-and-set is replayed after a
	// concurrent writer touched one of its watched keys.
	MaxTxRetries int

	// Backoff for transient connection failures
	RetryInitialInterval time.Duration
	RetryMaxAttempts     uint64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                  "redis://localhost:6379",
		PoolSize:             10,
		MinIdleConns:         2,
		GuestPlayerTTL:       24 * time.Hour,
		LobbyTTL:             2 * time.Hour,
		GameTTL:              24 * time.Hour,
		MaxTxRetries:         50,
		RetryInitialInterval: 50 * time.Millisecond,
		RetryMaxAttempts:     4,
	}
}
