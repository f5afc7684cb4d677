package core

import "time"

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultInitialWait = 1 * time.Second
	DefaultMaxWait     = 5 * time.Second

	// SessionKey is the single store key the session lives under
	SessionKey = "yb_auth"
)

// ClientConfig configures the resilient HTTP client
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig

	// RateLimit is the sustained requests per second; 0 disables pacing
	RateLimit float64
	RateBurst int
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration

	// RetryNonIdempotent allows POST to be retried on retriable failures
	RetryNonIdempotent bool
	// RetryAll retries every failure kind and method uniformly
	RetryAll bool
}

// DefaultRetryConfig returns 3 attempts with 1s, 2s, 4s capped at 5s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		InitialWait: DefaultInitialWait,
		MaxWait:     DefaultMaxWait,
	}
}

// WithDefaults fills zero values
func (c RetryConfig) WithDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialWait <= 0 {
		c.InitialWait = DefaultInitialWait
	}
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultMaxWait
	}
	return c
}

// AppInfo is the build metadata consumed at startup
type AppInfo struct {
	Name    string
	Version string
	Mode    string // development | production
}

// IsProduction reports whether the build mode is production
func (a AppInfo) IsProduction() bool {
	return a.Mode == "production"
}
