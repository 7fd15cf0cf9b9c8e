package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// TestLoad_Defaults tests that all default values load correctly without any env vars.
func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	// Server defaults
	assert.Equal(t, 8080, cfg.Server.Port, "default server port")
	assert.Equal(t, "10s", cfg.Server.ReadTimeout.String(), "default read timeout")
	assert.Equal(t, "10s", cfg.Server.WriteTimeout.String(), "default write timeout")

	// Storage defaults
	assert.Equal(t, "flightplan.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "data", cfg.Storage.AssetsDir)
	assert.True(t, cfg.Storage.Compress)

	// Cache defaults
	assert.Empty(t, cfg.Cache.RedisURL, "cache disabled by default")
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)

	// Browser defaults
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, time.Minute, cfg.Browser.NavigationTimeout)
	assert.Nil(t, cfg.Browser.Proxy())
	assert.Equal(t, 2.0, cfg.Browser.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Browser.Burst)
	assert.Empty(t, cfg.Browser.DumpDir)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level, "default log level")
	assert.Equal(t, "console", cfg.Logging.Format, "default log format")

	assert.True(t, cfg.Throttle.Enabled)
	assert.Equal(t, "development", cfg.App.Env, "default app environment")
}

// TestLoad_EnvironmentOverrides tests that environment variables override defaults.
func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	setEnvVars(t, map[string]string{
		"SERVER_PORT":           "3000",
		"DATABASE_PATH":         "/var/lib/flightplan/awards.db",
		"ASSETS_DIR":            "/var/lib/flightplan/assets",
		"ASSETS_COMPRESS":       "false",
		"REDIS_URL":             "redis://localhost:6379/0",
		"CACHE_TTL":             "30m",
		"BROWSER_HEADLESS":      "false",
		"NAVIGATION_TIMEOUT":    "2m",
		"PROXY_URL":             "http://proxy.local:3128",
		"PROXY_USERNAME":        "scout",
		"PROXY_PASSWORD":        "secret",
		"THROTTLE_ENABLED":      "false",
		"LOG_LEVEL":             "debug",
		"LOG_FORMAT":            "json",
		"LOG_CALLER":            "true",
		"APP_ENV":               "production",
		"AIRLINE_OVERRIDES_DIR": "/etc/flightplan",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/var/lib/flightplan/awards.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "/var/lib/flightplan/assets", cfg.Storage.AssetsDir)
	assert.False(t, cfg.Storage.Compress)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 2*time.Minute, cfg.Browser.NavigationTimeout)
	assert.Equal(t, &domain.Proxy{URL: "http://proxy.local:3128", Username: "scout", Password: "secret"}, cfg.Browser.Proxy())
	assert.Equal(t, "production", cfg.App.Env)

	logCfg := cfg.Logger()
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
	assert.True(t, logCfg.EnableCaller)

	opts := cfg.AirlineOptions()
	assert.Equal(t, "/etc/flightplan", opts.OverridesDir)
	assert.True(t, opts.DisableThrottling)
}

// TestLoad_Credentials tests that per-airline credentials are collected.
func TestLoad_Credentials(t *testing.T) {
	clearEnvVars(t)
	setEnvVars(t, map[string]string{
		"FP_UA_USERNAME":  "mp12345",
		"FP_UA_PASSWORD":  "hunter2",
		"FP_AC_USERNAME":  "aeroplan",
		"FP_BAD_USERNAME": "ignored",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.Credentials{Username: "mp12345", Password: "hunter2"}, cfg.Credentials("ua"))
	assert.Equal(t, domain.Credentials{Username: "aeroplan"}, cfg.Credentials("AC"))
	assert.True(t, cfg.Credentials("NH").IsZero())
	assert.True(t, cfg.Credentials("BAD").IsZero())
}

// TestLoad_Validation_PortRange tests port validation boundaries.
func TestLoad_Validation_PortRange(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr bool
		errMsg  string
	}{
		{"valid port 1", "1", false, ""},
		{"valid port 8080", "8080", false, ""},
		{"valid port 65535", "65535", false, ""},
		{"invalid port 0", "0", true, "SERVER_PORT must be between 1 and 65535"},
		{"invalid port negative", "-1", true, "SERVER_PORT must be between 1 and 65535"},
		{"invalid port too high", "65536", true, "SERVER_PORT must be between 1 and 65535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"SERVER_PORT": tt.port})

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
			}
		})
	}
}

// TestLoad_Validation_PositiveDurations tests that durations must be positive.
func TestLoad_Validation_PositiveDurations(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
		errMsg string
	}{
		{"zero read timeout", "SERVER_READ_TIMEOUT", "0s", "SERVER_READ_TIMEOUT must be positive"},
		{"negative write timeout", "SERVER_WRITE_TIMEOUT", "-1s", "SERVER_WRITE_TIMEOUT must be positive"},
		{"zero navigation timeout", "NAVIGATION_TIMEOUT", "0s", "NAVIGATION_TIMEOUT must be positive"},
		{"negative cache ttl", "CACHE_TTL", "-5m", "CACHE_TTL must be positive"},
		{"zero request rate", "BROWSER_REQUESTS_PER_SECOND", "0", "BROWSER_REQUESTS_PER_SECOND must be positive"},
		{"zero burst", "BROWSER_BURST", "0", "BROWSER_BURST at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{tt.envVar: tt.value})

			cfg, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, cfg)
		})
	}
}

// TestLoad_Validation_LogLevel tests log level validation.
func TestLoad_Validation_LogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"valid debug", "debug", false},
		{"valid info", "info", false},
		{"valid warn", "warn", false},
		{"valid error", "error", false},
		{"invalid trace", "trace", true},
		{"invalid fatal", "fatal", true},
		// Note: empty string uses default value "info" due to envDefault tag
		{"invalid random", "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"LOG_LEVEL": tt.level})

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_LEVEL must be one of")
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
			}
		})
	}
}

// TestLoad_Validation_LogFormat tests log format validation.
func TestLoad_Validation_LogFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"valid json", "json", false},
		{"valid console", "console", false},
		{"invalid text", "text", true},
		// Note: empty string uses default value "console" due to envDefault tag
		{"invalid random", "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"LOG_FORMAT": tt.format})

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_FORMAT must be one of")
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
			}
		})
	}
}

// TestLoad_Validation_AppEnv tests app environment validation.
func TestLoad_Validation_AppEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		wantErr bool
	}{
		{"valid development", "development", false},
		{"valid staging", "staging", false},
		{"valid production", "production", false},
		{"invalid local", "local", true},
		// Note: empty string uses default value "development" due to envDefault tag
		{"invalid random", "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"APP_ENV": tt.env})

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "APP_ENV must be one of")
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, cfg)
			}
		})
	}
}

// TestMustLoad_Success tests MustLoad with valid config.
func TestMustLoad_Success(t *testing.T) {
	clearEnvVars(t)

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// TestMustLoad_Panic tests MustLoad panics on invalid config.
func TestMustLoad_Panic(t *testing.T) {
	clearEnvVars(t)
	setEnvVars(t, map[string]string{"SERVER_PORT": "0"})

	assert.Panics(t, func() {
		MustLoad()
	})
}

// TestConfig_IsDevelopment tests the IsDevelopment helper method.
func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"staging", false},
		{"production", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"APP_ENV": tt.env})

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}

// TestConfig_IsProduction tests the IsProduction helper method.
func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", false},
		{"staging", false},
		{"production", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			clearEnvVars(t)
			setEnvVars(t, map[string]string{"APP_ENV": tt.env})

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.IsProduction())
		})
	}
}

// Helper functions

// clearEnvVars clears all config-related environment variables.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"DATABASE_PATH",
		"ASSETS_DIR",
		"ASSETS_COMPRESS",
		"REDIS_URL",
		"CACHE_TTL",
		"BROWSER_HEADLESS",
		"NAVIGATION_TIMEOUT",
		"USER_AGENT",
		"PROXY_URL",
		"PROXY_USERNAME",
		"PROXY_PASSWORD",
		"BROWSER_REQUESTS_PER_SECOND",
		"BROWSER_BURST",
		"BROWSER_DUMP_DIR",
		"THROTTLE_ENABLED",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"LOG_CALLER",
		"APP_ENV",
		"AIRLINE_OVERRIDES_DIR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "FP_") {
			os.Unsetenv(key)
		}
	}
}

// setEnvVars sets multiple environment variables.
func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}
