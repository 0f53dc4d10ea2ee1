package config

import "time"

// TimeoutConfig holds timeout settings for the HTTP server and message feed.
// These can be configured via CLI flags to tune for different environments.
type TimeoutConfig struct {
	// Request bounds a single API request including its datastore work.
	// Default: 30s
	Request time.Duration

	// ReadHeader is the time allowed to read request headers. Default: 10s
	ReadHeader time.Duration

	// Idle is how long keep-alive connections stay open. Default: 120s
	Idle time.Duration

	// Shutdown is how long in-flight requests get to finish on exit.
	// Default: 10s
	Shutdown time.Duration

	// FeedHeartbeat is the interval between SSE heartbeats and WebSocket
	// keepalive pings. Default: 30s
	FeedHeartbeat time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Request:       30 * time.Second,
		ReadHeader:    10 * time.Second,
		Idle:          120 * time.Second,
		Shutdown:      10 * time.Second,
		FeedHeartbeat: 30 * time.Second,
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
