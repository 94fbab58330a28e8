package config

import "time"

// Server defaults
const (
	DefaultServerPort = "8080"

	// ServerReadTimeout is the maximum duration for reading the entire request
	ServerReadTimeout = 15 * time.Second
	// ServerWriteTimeout is the maximum duration before timing out writes of the response
	ServerWriteTimeout = 30 * time.Second
	// ServerIdleTimeout is the maximum amount of time to wait for the next request
	ServerIdleTimeout = 60 * time.Second
	// ServerShutdownTimeout is how long to wait for in-flight requests on shutdown
	ServerShutdownTimeout = 10 * time.Second
)

// Database pool defaults
const (
	DefaultMaxOpenConns = 25
	DefaultMaxIdleConns = 5
	// DatabaseConnMaxLifetime bounds how long a pooled connection is reused
	DatabaseConnMaxLifetime = 5 * time.Minute

	// DatabasePingTimeout is the timeout for the startup connectivity check
	DatabasePingTimeout = 5 * time.Second
)

// Quiz generator defaults
const (
	DefaultGeneratorModel       = "gpt-4o-mini"
	DefaultGeneratorTemperature = 0.7
	DefaultGeneratorMaxTokens   = 4096

	// GenerationRequestTimeout bounds a single generator round trip. Generation
	// of a full question set can be slow, so this is deliberately generous.
	GenerationRequestTimeout = 120 * time.Second
)

// Course defaults applied when a create request omits the optional knobs
const (
	DefaultDaysToComplete   = 7
	DefaultQuizzesPerDay    = 1
	DefaultQuestionsPerQuiz = 5
)
