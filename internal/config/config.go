package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/build-a-merch-store/review-gateway/pkg/config"
)

// Config holds all configuration for the review gateway service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// Upstream reviews API
	ReviewsAPIBaseURL     string `env:"REVIEWS_API_BASE_URL" envDefault:"http://localhost:9090"`
	ReviewsAPIKey         string `env:"REVIEWS_API_KEY"`
	ReviewsAPIKeyHeader   string `env:"REVIEWS_API_KEY_HEADER" envDefault:"X-Api-Key"`
	ReviewsTimeoutSeconds int    `env:"REVIEWS_REQUEST_TIMEOUT_SECONDS" envDefault:"5"`

	// Circuit breaker
	FailureThreshold    int `env:"REVIEWS_FAILURE_THRESHOLD" envDefault:"3"`
	OpenDurationSeconds int `env:"REVIEWS_OPEN_DURATION_SECONDS" envDefault:"30"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Tracing
	TracingEnabled  bool    `env:"OTEL_TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"OTEL_TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// ReviewsTimeout returns the per-request upstream timeout as a duration.
func (c *Config) ReviewsTimeout() time.Duration {
	return time.Duration(c.ReviewsTimeoutSeconds) * time.Second
}

// OpenDuration returns the circuit breaker cooldown as a duration.
func (c *Config) OpenDuration() time.Duration {
	return time.Duration(c.OpenDurationSeconds) * time.Second
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review gateway config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.ReviewsAPIBaseURL == "" {
		return fmt.Errorf("REVIEWS_API_BASE_URL must not be empty")
	}
	if c.Environment != "development" && c.ReviewsAPIKey == "" {
		return fmt.Errorf("REVIEWS_API_KEY is required in %s environment", c.Environment)
	}
	if c.ReviewsTimeoutSeconds < 1 {
		return fmt.Errorf("REVIEWS_REQUEST_TIMEOUT_SECONDS must be at least 1, got %d", c.ReviewsTimeoutSeconds)
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("REVIEWS_FAILURE_THRESHOLD must be at least 1, got %d", c.FailureThreshold)
	}
	if c.OpenDurationSeconds < 1 {
		return fmt.Errorf("REVIEWS_OPEN_DURATION_SECONDS must be at least 1, got %d", c.OpenDurationSeconds)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("OTEL_TRACE_SAMPLE_RATE must be between 0 and 1, got %g", c.TraceSampleRate)
	}
	return nil
}
