// Package config loads the engine's two configuration surfaces: a small
// set of operational environment overrides (log level, HTTP port, the
// path to the declarative document, the in-flight timeout) and the
// declarative document itself (catalog, adapters, strategy/risk
// parameters, initial trading state, audit enablement).
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the operational overrides read from the environment.
type Config struct {
	LogLevel        string
	Port            int
	DevMode         bool
	DocumentPath    string
	InFlightTimeout time.Duration
}

// Load reads a .env file if present, then the environment, applying the
// same getEnv/getEnvAsInt/getEnvAsBool defaulting pattern throughout.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DocumentPath:    getEnv("ENGINE_CONFIG_PATH", "./engine.yaml"),
		InFlightTimeout: getEnvAsDuration("IN_FLIGHT_TIMEOUT", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.DocumentPath == "" {
		return fmt.Errorf("ENGINE_CONFIG_PATH is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// LoadDocument parses a Document from a YAML file at path, rejecting
// unknown fields.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("config: validating %s: %w", path, err)
	}

	return &doc, nil
}
