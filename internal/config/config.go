// Package config loads CLI configuration from a YAML file, ONEAPI_* environment
// variables and .env files, in increasing order of precedence for env over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sternrassler/oneapi-client/pkg/api"
)

// EnvPrefix prefixes every environment variable, e.g. ONEAPI_API_TOKEN.
const EnvPrefix = "ONEAPI"

// TokenEnv is the environment variable holding the access token.
const TokenEnv = EnvPrefix + "_API_TOKEN"

// ErrMissingToken is returned when no access token is configured.
var ErrMissingToken = errors.New("missing API access token")

// Config is the complete CLI configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	PageSize  int             `mapstructure:"page_size"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
}

type APIConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RetryOnRateLimit  bool          `mapstructure:"retry_on_rate_limit"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// RedisConfig enables the shared request window when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration. An empty configPath searches ./config.yaml and
// ~/.oneapi/config.yaml; a missing file there is not an error, an explicit
// path that cannot be read is. .env and .env.local never override variables
// already set in the environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".oneapi"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.token", "")
	v.SetDefault("api.base_url", api.DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("rate_limit.requests_per_minute", 10)
	v.SetDefault("rate_limit.retry_on_rate_limit", true)
	v.SetDefault("rate_limit.retry_backoff", 30*time.Second)

	v.SetDefault("page_size", api.DefaultLimit)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.SetDefault("server.addr", ":8080")
}

// Validate checks limits. Callers that override loaded values must call it
// again. The token is checked separately by RequireToken so commands can
// print the setup guidance.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate_limit.requests_per_minute must be >= 1")
	}
	if cfg.RateLimit.RetryBackoff < 0 {
		return fmt.Errorf("rate_limit.retry_backoff must not be negative")
	}
	if cfg.PageSize < 1 {
		return fmt.Errorf("page_size must be >= 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	return nil
}

// RequireToken returns ErrMissingToken when no token is configured.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.API.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// MissingTokenHelp is printed when RequireToken fails.
func MissingTokenHelp() string {
	return fmt.Sprintf(`Error: Missing API access token

Please set the environment variable %s to your
access token given by the-one-api.dev

Example:

$ env %s='A123b123c123d123e123' oneapi movies`, TokenEnv, TokenEnv)
}
