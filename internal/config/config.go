package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"kesef/internal/core"
	"kesef/internal/log"
)

type Config struct {
	// HTTP Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Graceful shutdown budget after SIGINT/SIGTERM
	ShutdownTimeout time.Duration

	// Mutating requests allowed per client per minute
	RateLimitPerMinute int

	// Take client addresses from proxy headers; only behind a reverse proxy
	TrustProxyHeaders bool

	// Logging
	LogLevel  string
	LogFormat string

	// Page defaults, also restored by a reset
	DefaultTheme string
	DefaultView  string
}

// Load reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honoured. Unparseable numbers and
// durations fall back to their defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DefaultTheme: getEnv("DEFAULT_THEME", string(core.Light)),
		DefaultView:  getEnv("DEFAULT_VIEW", string(core.Dashboard)),
	}
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of [text json]", c.LogFormat))
	}

	if c.DefaultTheme != string(core.Light) && c.DefaultTheme != string(core.Dark) {
		errors = append(errors, fmt.Sprintf("invalid default theme '%s': must be one of [light dark]", c.DefaultTheme))
	}
	if _, err := core.ParseView(c.DefaultView); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default view '%s': must be one of [dashboard analytics]", c.DefaultView))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"read timeout", c.ReadTimeout},
		{"write timeout", c.WriteTimeout},
		{"idle timeout", c.IdleTimeout},
		{"shutdown timeout", c.ShutdownTimeout},
	} {
		if d.value < time.Second {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at least 1 second", d.name, d.value))
		} else if d.value > 10*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at most 10 minutes", d.name, d.value))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Theme returns the validated default theme.
func (c *Config) Theme() core.Theme {
	return core.ParseTheme(c.DefaultTheme)
}

// View returns the validated default view, dashboard if it does not parse.
func (c *Config) View() core.View {
	v, err := core.ParseView(c.DefaultView)
	if err != nil {
		return core.Dashboard
	}
	return v
}

// LoggerConfig maps the logging settings onto a log.Config.
func (c *Config) LoggerConfig() log.Config {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = lvl
	}
	cfg.Format = c.LogFormat
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
