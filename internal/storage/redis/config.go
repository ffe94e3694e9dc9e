package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL expires idle sessions; zero keeps them until deleted by hand.
	// Every update refreshes the TTL.
	SessionTTL time.Duration

	// MaxUpdateRetries bounds optimistic transaction retries under contention
	MaxUpdateRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		SessionTTL:       24 * time.Hour,
		MaxUpdateRetries: 16,
	}
}
