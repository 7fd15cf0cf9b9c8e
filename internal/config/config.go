// Package config provides application configuration management.
// Process settings come from environment variables (with .env support);
// airline settings come from embedded JSON5 files, see airlines.go.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// credentialEnvRegex matches FP_<ID>_USERNAME and FP_<ID>_PASSWORD.
var credentialEnvRegex = regexp.MustCompile(`^FP_([A-Z0-9]{2})_(USERNAME|PASSWORD)$`)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Browser  BrowserConfig
	Throttle ThrottleConfig
	App      AppConfig

	// credentials are keyed by upper-case airline id
	credentials map[string]domain.Credentials
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
	Caller bool   `env:"LOG_CALLER" envDefault:"false"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// DatabasePath is the sqlite file holding requests and awards
	DatabasePath string `env:"DATABASE_PATH" envDefault:"flightplan.db"`

	// AssetsDir is where HTML, JSON and screenshots are written
	AssetsDir string `env:"ASSETS_DIR" envDefault:"data"`

	// Compress gzips HTML and JSON assets
	Compress bool `env:"ASSETS_COMPRESS" envDefault:"true"`
}

// CacheConfig holds the results cache settings. An empty RedisURL
// disables caching.
type CacheConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"6h"`
}

// BrowserConfig holds settings of the browsing sessions.
type BrowserConfig struct {
	Headless          bool          `env:"BROWSER_HEADLESS" envDefault:"true"`
	NavigationTimeout time.Duration `env:"NAVIGATION_TIMEOUT" envDefault:"60s"`
	UserAgent         string        `env:"USER_AGENT"`
	ProxyURL          string        `env:"PROXY_URL"`
	ProxyUsername     string        `env:"PROXY_USERNAME"`
	ProxyPassword     string        `env:"PROXY_PASSWORD"`

	// RequestsPerSecond and Burst pace the raw requests of one session
	RequestsPerSecond float64 `env:"BROWSER_REQUESTS_PER_SECOND" envDefault:"2"`
	Burst             int     `env:"BROWSER_BURST" envDefault:"4"`

	// DumpDir, when set, receives a copy of every response for debugging
	DumpDir string `env:"BROWSER_DUMP_DIR"`
}

// Proxy returns the configured proxy, or nil.
func (b BrowserConfig) Proxy() *domain.Proxy {
	if b.ProxyURL == "" {
		return nil
	}
	return &domain.Proxy{URL: b.ProxyURL, Username: b.ProxyUsername, Password: b.ProxyPassword}
}

// ThrottleConfig holds throttling overrides.
type ThrottleConfig struct {
	// Enabled turns off throttling for every airline when false
	Enabled bool `env:"THROTTLE_ENABLED" envDefault:"true"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	// AirlineOverridesDir holds optional <id>.local.json5 files
	AirlineOverridesDir string `env:"AIRLINE_OVERRIDES_DIR"`
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first (optional - won't fail if missing).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.credentials = credentialsFromEnv(os.Environ())

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics on error.
// Use this in main() where configuration is required to start.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func credentialsFromEnv(environ []string) map[string]domain.Credentials {
	creds := make(map[string]domain.Credentials)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m := credentialEnvRegex.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		c := creds[m[1]]
		if m[2] == "USERNAME" {
			c.Username = value
		} else {
			c.Password = value
		}
		creds[m[1]] = c
	}
	return creds
}

// validate checks configuration values for correctness.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("NAVIGATION_TIMEOUT must be positive")
	}
	if cfg.Browser.RequestsPerSecond <= 0 || cfg.Browser.Burst < 1 {
		return fmt.Errorf("BROWSER_REQUESTS_PER_SECOND must be positive and BROWSER_BURST at least 1")
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if strings.TrimSpace(cfg.Storage.DatabasePath) == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", cfg.Logging.Format)
	}

	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[cfg.App.Env] {
		return fmt.Errorf("APP_ENV must be one of: development, staging, production; got %q", cfg.App.Env)
	}

	return nil
}

// Credentials returns the account configured for the airline, if any.
func (c *Config) Credentials(engine string) domain.Credentials {
	return c.credentials[strings.ToUpper(engine)]
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		EnableCaller: c.Logging.Caller,
		ServiceName:  "flightplan",
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
