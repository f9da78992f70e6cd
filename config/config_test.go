package config_test

import (
	"testing"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironment_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnvironment(map[string]string{})
	require.NoError(t, err)

	assert.Empty(t, cfg.ClientID)
	assert.Empty(t, cfg.ClientSecret)
	assert.Empty(t, cfg.APIURL)
	assert.False(t, cfg.Stage)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 300*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 5*time.Second, cfg.RetryMaxDelay)
	assert.InDelta(t, 0.0, cfg.RetryJitter, 1e-9)
	assert.InDelta(t, 0.0, cfg.RateLimit, 1e-9)
	assert.Equal(t, time.Second, cfg.SlowThreshold)

	require.NoError(t, cfg.Validate())
}

func TestFromEnvironment_ReadsPrefixedVariables(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnvironment(map[string]string{
		"WPSEC_CLIENT_ID":        "id",
		"WPSEC_CLIENT_SECRET":    "secret",
		"WPSEC_STAGE":            "true",
		"WPSEC_DEBUG":            "1",
		"WPSEC_TIMEOUT":          "5s",
		"WPSEC_MAX_RETRIES":      "5",
		"WPSEC_RETRY_BASE_DELAY": "100ms",
		"WPSEC_RETRY_MAX_DELAY":  "2s",
		"WPSEC_RETRY_JITTER":     "0.2",
		"WPSEC_RATE_LIMIT":       "4",
		"CLIENT_ID":              "unprefixed",
	})
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.True(t, cfg.Stage)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 2*time.Second, cfg.RetryMaxDelay)
	assert.InDelta(t, 0.2, cfg.RetryJitter, 1e-9)
	assert.InDelta(t, 4.0, cfg.RateLimit, 1e-9)
}

func TestFromEnvironment_InvalidValue(t *testing.T) {
	t.Parallel()

	_, err := config.FromEnvironment(map[string]string{"WPSEC_TIMEOUT": "soon"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestNew_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("WPSEC_CLIENT_ID", "from-env")
	t.Setenv("WPSEC_API_URL", "http://localhost:8080/")

	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		apiURL   string
		stage    bool
		expected string
	}{
		{
			name:     "production by default",
			expected: config.ProductionBaseURL,
		},
		{
			name:     "staging",
			stage:    true,
			expected: config.StagingBaseURL,
		},
		{
			name:     "explicit url wins over staging",
			apiURL:   "https://api.example.test/",
			stage:    true,
			expected: "https://api.example.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.FromEnvironment(map[string]string{})
			require.NoError(t, err)

			cfg.APIURL = tt.apiURL
			cfg.Stage = tt.stage

			assert.Equal(t, tt.expected, cfg.BaseURL())
			assert.Equal(t, tt.expected+"/oauth/token", cfg.TokenURL())
		})
	}
}

func TestRetryConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnvironment(map[string]string{
		"WPSEC_MAX_RETRIES":      "4",
		"WPSEC_RETRY_BASE_DELAY": "50ms",
		"WPSEC_RETRY_MAX_DELAY":  "1s",
		"WPSEC_RETRY_JITTER":     "0.5",
	})
	require.NoError(t, err)

	retry := cfg.RetryConfig()

	assert.Equal(t, 4, retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, retry.InitialDelay)
	assert.Equal(t, time.Second, retry.MaxDelay)
	assert.InDelta(t, 0.5, retry.Jitter, 1e-9)
	assert.InDelta(t, 2.0, retry.Multiplier, 1e-9)
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{
			name:    "zero timeout",
			env:     map[string]string{"WPSEC_TIMEOUT": "0s"},
			message: "timeout must be greater than 0",
		},
		{
			name:    "no attempts",
			env:     map[string]string{"WPSEC_MAX_RETRIES": "0"},
			message: "maxRetries must be greater than or equal to 1",
		},
		{
			name:    "too many attempts",
			env:     map[string]string{"WPSEC_MAX_RETRIES": "11"},
			message: "maxRetries must be less than or equal to 10",
		},
		{
			name:    "jitter above one",
			env:     map[string]string{"WPSEC_RETRY_JITTER": "2"},
			message: "retryJitter must be less than or equal to 1",
		},
		{
			name:    "max delay below base delay",
			env:     map[string]string{"WPSEC_RETRY_BASE_DELAY": "2s", "WPSEC_RETRY_MAX_DELAY": "1s"},
			message: "retryMaxDelay must be greater than or equal to RetryBaseDelay",
		},
		{
			name:    "malformed api url",
			env:     map[string]string{"WPSEC_API_URL": "not a url"},
			message: "apiUrl must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.FromEnvironment(tt.env)
			require.NoError(t, err)

			err = cfg.Validate()
			require.ErrorIs(t, err, apierror.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnvironment(map[string]string{"WPSEC_LOG_LEVEL": "error"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, cfg.Level())

	cfg.Debug = true
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}
