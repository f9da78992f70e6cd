package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andyle182810/wpsec/httpclient"
	"github.com/andyle182810/wpsec/logutil"
	"github.com/andyle182810/wpsec/validator"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const (
	EnvPrefix         = "WPSEC_"
	ProductionBaseURL = "https://api.wpsec.com"
	StagingBaseURL    = "https://api-stage.wpsec.com"
	tokenPath         = "/oauth/token"
)

// Config is the endpoint configuration for one invocation. Values come from
// WPSEC_* environment variables and are then overridden by command-line flags.
type Config struct {
	// Credentials
	ClientID     string `env:"CLIENT_ID"     json:"clientId"`
	ClientSecret string `env:"CLIENT_SECRET" json:"-"`

	// Endpoint
	APIURL     string `env:"API_URL"     json:"apiUrl"     validate:"omitempty,url"`
	Stage      bool   `env:"STAGE"       json:"stage"      envDefault:"false"`
	APIVersion string `env:"API_VERSION" json:"apiVersion" envDefault:"v1" validate:"required"`

	// Logging
	Debug    bool   `env:"DEBUG"     json:"debug"    envDefault:"false"`
	LogLevel string `env:"LOG_LEVEL" json:"logLevel" envDefault:"warn"`

	// Request executor
	Timeout        time.Duration `env:"TIMEOUT"          json:"timeout"        envDefault:"30s"   validate:"gt=0"`
	MaxAttempts    int           `env:"MAX_RETRIES"      json:"maxRetries"     envDefault:"3"     validate:"gte=1,lte=10"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" json:"retryBaseDelay" envDefault:"300ms" validate:"gt=0"`
	RetryMaxDelay  time.Duration `env:"RETRY_MAX_DELAY"  json:"retryMaxDelay"  envDefault:"5s"    validate:"gtefield=RetryBaseDelay"`
	RetryJitter    float64       `env:"RETRY_JITTER"     json:"retryJitter"    envDefault:"0"     validate:"gte=0,lte=1"`
	RateLimit      float64       `env:"RATE_LIMIT"       json:"rateLimit"      envDefault:"0"     validate:"gte=0"`

	// Ping
	SlowThreshold time.Duration `env:"SLOW_THRESHOLD" json:"slowThreshold" envDefault:"1s" validate:"gt=0"`
}

// New reads the configuration from the process environment.
func New() (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix}) //nolint:exhaustruct
}

// FromEnvironment reads the configuration from the given variables instead of
// the process environment.
func FromEnvironment(environment map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environment}) //nolint:exhaustruct
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the executor settings. Credentials are checked by the token
// exchange since ping does not need them.
func (c *Config) Validate() error {
	return validator.New().Validate(c) //nolint:wrapcheck
}

// BaseURL resolves the API base URL: an explicit URL wins over staging, which
// wins over production.
func (c *Config) BaseURL() string {
	switch {
	case c.APIURL != "":
		return strings.TrimRight(c.APIURL, "/")
	case c.Stage:
		return StagingBaseURL
	default:
		return ProductionBaseURL
	}
}

func (c *Config) TokenURL() string {
	return c.BaseURL() + tokenPath
}

func (c *Config) RetryConfig() httpclient.RetryConfig {
	cfg := httpclient.DefaultRetryConfig()
	cfg.MaxAttempts = c.MaxAttempts
	cfg.InitialDelay = c.RetryBaseDelay
	cfg.MaxDelay = c.RetryMaxDelay
	cfg.Jitter = c.RetryJitter

	return cfg
}

// Level is debug when Debug is set, otherwise the parsed LogLevel.
func (c *Config) Level() zerolog.Level {
	if c.Debug {
		return zerolog.DebugLevel
	}

	return logutil.ParseZerologLevel(c.LogLevel)
}
