// Package config loads harness configuration from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when the configuration is invalid.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all harness configuration.
type Config struct {
	Target TargetConfig
	Auth   AuthConfig
	Run    RunConfig
	Log    LogConfig
}

// TargetConfig holds the entry point of the system under test.
type TargetConfig struct {
	// BaseURL is the gateway base URL all collaborator paths are joined to.
	// Default: "http://localhost:9090"
	BaseURL string

	// ConnectTimeout bounds connection establishment.
	// Default: 10s
	ConnectTimeout time.Duration

	// ReadTimeout bounds a whole request/response exchange.
	// Default: 30s
	ReadTimeout time.Duration
}

// AuthConfig holds token issuing settings. The key and algorithm are fixed
// at process start and never mutated afterwards.
type AuthConfig struct {
	// Subject is the token subject used for all requests.
	// Default: "testuser"
	Subject string

	// Secret is the symmetric signing key shared with the gateway.
	// Default: "secret"
	Secret string

	// TTL is the token lifetime.
	// Default: 10h
	TTL time.Duration
}

// RunConfig holds scenario execution settings.
type RunConfig struct {
	// ScenarioTimeout bounds one scenario run end to end.
	// Default: 5m
	ScenarioTimeout time.Duration

	// Parallel runs selected scenarios concurrently. Each scenario owns its
	// uniqueness namespace, so runs do not interfere with each other.
	Parallel bool

	// Wait bounds an optional pre-flight wait for the gateway to become
	// reachable before any scenario runs. Zero disables the wait.
	Wait time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Load loads configuration from the given YAML file and environment
// variables. Priority (highest to lowest):
// 1. Environment variables with E2E_ prefix (e.g., E2E_TARGET_BASE_URL)
// 2. The config file, when path is non-empty or ./e2e.yaml exists
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName("e2e")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: reading config file: %w", err)
			}
			// No file is fine, defaults and env vars cover everything.
		}
	}

	v.SetEnvPrefix("E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Target: TargetConfig{
			BaseURL:        v.GetString("target.base_url"),
			ConnectTimeout: v.GetDuration("target.connect_timeout"),
			ReadTimeout:    v.GetDuration("target.read_timeout"),
		},
		Auth: AuthConfig{
			Subject: v.GetString("auth.subject"),
			Secret:  v.GetString("auth.secret"),
			TTL:     v.GetDuration("auth.ttl"),
		},
		Run: RunConfig{
			ScenarioTimeout: v.GetDuration("run.scenario_timeout"),
			Parallel:        v.GetBool("run.parallel"),
			Wait:            v.GetDuration("run.wait"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Target.BaseURL == "" {
		cfg.Target.BaseURL = "http://localhost:9090"
	}
	if cfg.Target.ConnectTimeout == 0 {
		cfg.Target.ConnectTimeout = 10 * time.Second
	}
	if cfg.Target.ReadTimeout == 0 {
		cfg.Target.ReadTimeout = 30 * time.Second
	}
	if cfg.Auth.Subject == "" {
		cfg.Auth.Subject = "testuser"
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "secret"
	}
	if cfg.Auth.TTL == 0 {
		cfg.Auth.TTL = 10 * time.Hour
	}
	if cfg.Run.ScenarioTimeout == 0 {
		cfg.Run.ScenarioTimeout = 5 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate validates the configuration. Callers that mutate a loaded config
// (e.g. CLI flag overrides) must re-validate before using it.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: target.base_url %q is not an http(s) URL", ErrInvalidConfig, c.Target.BaseURL)
	}
	if c.Target.ConnectTimeout <= 0 || c.Target.ReadTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.Auth.TTL <= 0 {
		return fmt.Errorf("%w: auth.ttl must be positive", ErrInvalidConfig)
	}
	if c.Run.ScenarioTimeout <= 0 {
		return fmt.Errorf("%w: run.scenario_timeout must be positive", ErrInvalidConfig)
	}
	if c.Run.Wait < 0 {
		return fmt.Errorf("%w: run.wait cannot be negative", ErrInvalidConfig)
	}
	return nil
}
