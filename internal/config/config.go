package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/versecache/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port          string
	DBPath        string
	ProviderURL   string
	ProbeURL      string
	LogLevel      string
	LogFormat     string
	MaxConcurrent int
	MaxRetries    int
	SyncInterval  time.Duration
	CacheTTL      time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", constants.DefaultPort),
		DBPath:        getEnv("DB_PATH", constants.DefaultDBPath),
		ProviderURL:   getEnv("PROVIDER_URL", constants.DefaultProviderURL),
		ProbeURL:      getEnv("PROBE_URL", constants.DefaultProbeURL),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		MaxConcurrent: getEnvInt("MAX_CONCURRENT", constants.DefaultConcurrency),
		MaxRetries:    getEnvInt("MAX_RETRIES", constants.DefaultMaxRetries),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", constants.DefaultSyncInterval),
		CacheTTL:      getEnvDuration("CACHE_TTL", constants.DefaultCacheTTL),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.ProviderURL == "" {
		errors = append(errors, "PROVIDER_URL cannot be empty")
	} else if _, err := url.ParseRequestURI(c.ProviderURL); err != nil {
		errors = append(errors, fmt.Sprintf("PROVIDER_URL is not a valid URL: %s", c.ProviderURL))
	}

	if c.ProbeURL == "" {
		errors = append(errors, "PROBE_URL cannot be empty")
	} else if _, err := url.ParseRequestURI(c.ProbeURL); err != nil {
		errors = append(errors, fmt.Sprintf("PROBE_URL is not a valid URL: %s", c.ProbeURL))
	}

	if c.MaxConcurrent < 1 {
		errors = append(errors, fmt.Sprintf("MAX_CONCURRENT must be at least 1, got: %d", c.MaxConcurrent))
	}

	if c.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("MAX_RETRIES cannot be negative, got: %d", c.MaxRetries))
	}

	if c.SyncInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("SYNC_INTERVAL must be at least 1m, got: %s", c.SyncInterval))
	}

	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("CACHE_TTL must be positive, got: %s", c.CacheTTL))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
