package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the test's duration.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:9090", cfg.ReviewsAPIBaseURL)
	assert.Equal(t, "X-Api-Key", cfg.ReviewsAPIKeyHeader)
	assert.Equal(t, 5*time.Second, cfg.ReviewsTimeout())
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.OpenDuration())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_CustomValues(t *testing.T) {
	setEnvs(t, map[string]string{
		"HTTP_PORT":                       "9000",
		"REVIEWS_API_BASE_URL":            "https://reviews.internal.example.com",
		"REVIEWS_API_KEY":                 "secret",
		"REVIEWS_REQUEST_TIMEOUT_SECONDS": "2",
		"REVIEWS_FAILURE_THRESHOLD":       "5",
		"REVIEWS_OPEN_DURATION_SECONDS":   "60",
		"CORS_ALLOWED_ORIGINS":            "https://shop.example.com,https://admin.example.com",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "https://reviews.internal.example.com", cfg.ReviewsAPIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.ReviewsTimeout())
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.OpenDuration())
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_MissingAPIKeyOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVIEWS_API_KEY is required")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("REVIEWS_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVIEWS_REQUEST_TIMEOUT_SECONDS must be at least 1")
}

func TestLoad_InvalidFailureThreshold(t *testing.T) {
	t.Setenv("REVIEWS_FAILURE_THRESHOLD", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVIEWS_FAILURE_THRESHOLD must be at least 1")
}

func TestLoad_InvalidSampleRate(t *testing.T) {
	t.Setenv("OTEL_TRACE_SAMPLE_RATE", "1.5")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_TRACE_SAMPLE_RATE must be between")
}
