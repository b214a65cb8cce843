package catalog

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/oneapi-client/pkg/ratelimit"
)

// Config holds the catalog configuration.
type Config struct {
	// PageSize is the number of records requested per page.
	PageSize int

	// RequestsPerMinute caps requests within any trailing minute.
	RequestsPerMinute int

	// RetryOnRateLimit retries 429 responses until they succeed.
	RetryOnRateLimit bool

	// RetryBackoff is the pause before each 429 retry.
	RetryBackoff time.Duration

	// RequestLog overrides the in-memory request window, e.g. with a
	// ratelimit.RedisLog shared between processes. Optional.
	RequestLog ratelimit.RequestLog

	// Clock overrides the wall clock. Optional, for tests.
	Clock ratelimit.Clock

	// Logger overrides the component logger. Optional.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration within the public API's limits.
func DefaultConfig() Config {
	return Config{
		PageSize:          10,
		RequestsPerMinute: 10,
		RetryOnRateLimit:  true,
		RetryBackoff:      30 * time.Second,
	}
}
