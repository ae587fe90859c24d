// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	BaseURL         string
	APIKey          string
	AdminKey        string
	DownloadDir     string
	DatabasePath    string
	PreferencesPath string
	LogDir          string
	LogLevel        string
	TelemetryAddr   string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	Notifications   bool
}

// Default values
const (
	defaultBaseURL      = "http://localhost:8000"
	defaultPollInterval = 5 * time.Second
	defaultLogLevel     = "info"

	// DisabledValue turns off an optional path-based feature.
	DisabledValue = "off"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		BaseURL:         strings.TrimRight(getEnvString("BASE_URL", defaultBaseURL), "/"),
		APIKey:          getEnvString("API_KEY", ""),
		AdminKey:        getEnvString("ADMIN_KEY", ""),
		DownloadDir:     getEnvString("DOWNLOAD_DIR", getDefaultDownloadDir()),
		DatabasePath:    getEnvString("DATABASE_PATH", defaultConfigPath("console.db")),
		PreferencesPath: getEnvString("PREFERENCES_PATH", defaultConfigPath("preferences.json")),
		LogDir:          getEnvString("LOG_DIR", defaultConfigPath("logs")),
		LogLevel:        getEnvString("LOG_LEVEL", defaultLogLevel),
		TelemetryAddr:   getEnvString("TELEMETRY_ADDR", ""),
		PollInterval:    getEnvDuration("POLL_INTERVAL", defaultPollInterval),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 0),
		Notifications:   getEnvBool("NOTIFICATIONS", true),
	}

	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	// Ensure database directory exists
	if cfg.PersistenceEnabled() {
		if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
			return nil, err
		}
	}

	// Ensure preferences directory exists
	if err := ensureDir(filepath.Dir(cfg.PreferencesPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PersistenceEnabled reports whether the audit database is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabasePath != "" && c.DatabasePath != DisabledValue
}

// TelemetryEnabled reports whether the telemetry HTTP export should run.
func (c *Config) TelemetryEnabled() bool {
	return c.TelemetryAddr != "" && c.TelemetryAddr != DisabledValue
}

// DefaultBaseURL returns the fallback remote API location.
func DefaultBaseURL() string {
	return defaultBaseURL
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BASE_URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q: missing host", raw)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "filerepo-console", ".env"),
			filepath.Join(home, ".filerepo", ".env"),
		)
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// defaultConfigPath returns a path under the console's config directory.
func defaultConfigPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "filerepo-console", name)
}

// getDefaultDownloadDir returns the working directory, or "." if unknown.
func getDefaultDownloadDir() string {
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
