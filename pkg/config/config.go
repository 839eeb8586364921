// Copyright 2025 GOVRES Settlement Authority
//
// Runtime configuration for the govresd service. Values come from the
// environment with safe defaults; a YAML file may overlay the environment for
// deployments that prefer files (GOVRES_CONFIG_FILE).

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the GOVRES core service.
type Config struct {
	// Service identity
	ValidatorID string `yaml:"validator_id"`

	// Server configuration
	MetricsAddr string `yaml:"metrics_addr"`

	// Sealing configuration
	BlockInterval time.Duration `yaml:"block_interval"`

	// Database configuration (persistence adapter; optional)
	DatabaseURL         string `yaml:"database_url"`
	DatabaseRequired    bool   `yaml:"database_required"` // if true, startup fails when the adapter cannot connect
	DatabaseMaxConns    int    `yaml:"database_max_conns"`
	DatabaseMinConns    int    `yaml:"database_min_conns"`
	DatabaseMaxIdleTime int    `yaml:"database_max_idle_time"` // seconds
	DatabaseMaxLifetime int    `yaml:"database_max_lifetime"`  // seconds

	// Event bus configuration
	EventBufferSize int `yaml:"event_buffer_size"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from environment variables and, when
// GOVRES_CONFIG_FILE is set, overlays the YAML file on top.
func Load() (*Config, error) {
	cfg := &Config{
		ValidatorID: getEnv("VALIDATOR_ID", "BOG-VALIDATOR-01"),

		MetricsAddr: getEnv("METRICS_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),

		BlockInterval: getEnvDuration("BLOCK_INTERVAL", BlockInterval),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseRequired:    getEnvBool("DATABASE_REQUIRED", false),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),

		EventBufferSize: getEnvInt("EVENT_BUFFER_SIZE", 1024),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if path := getEnv("GOVRES_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overlays a YAML configuration file on the current values.
func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable. Call after Load().
func (c *Config) Validate() error {
	var errs []string

	if c.ValidatorID == "" {
		errs = append(errs, "VALIDATOR_ID must not be empty")
	}
	if c.BlockInterval <= 0 {
		errs = append(errs, "BLOCK_INTERVAL must be positive")
	}
	if c.DatabaseRequired && c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required when DATABASE_REQUIRED is set")
	}
	if c.EventBufferSize <= 0 {
		errs = append(errs, "EVENT_BUFFER_SIZE must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
