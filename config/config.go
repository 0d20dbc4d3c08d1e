package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
}

// Load builds a Config from environment variables, falling back to Docker
// secrets under SECRETS_DIR (default /run/secrets) for values not set in the
// environment, then to built-in development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerHost:    lookup("SERVER_HOST", "0.0.0.0"),
		ServerPort:    lookup("SERVER_PORT", "8080"),
		DBHost:        lookup("DB_HOST", "localhost"),
		DBPort:        lookup("DB_PORT", "5432"),
		DBUser:        lookup("DB_USER", "postgres"),
		DBPassword:    lookup("DB_PASSWORD", ""),
		DBName:        lookup("DB_NAME", "tastebook"),
		DBSSLMode:     lookup("DB_SSL_MODE", "disable"),
		RedisHost:     lookup("REDIS_HOST", "localhost"),
		RedisPort:     lookup("REDIS_PORT", "6379"),
		RedisPassword: lookup("REDIS_PASSWORD", ""),
		RedisURL:      lookup("REDIS_URL", ""),
		JWTSecret:     lookup("JWT_SECRET", ""),
	}

	redisDB := lookup("REDIS_DB", "0")
	n, err := strconv.Atoi(redisDB)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB %q: %w", redisDB, err)
	}
	cfg.RedisDB = n

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that every required value is present.
func (c *Config) Validate() error {
	var missing []string
	required := map[string]string{
		"SERVER_PORT": c.ServerPort,
		"DB_HOST":     c.DBHost,
		"DB_PORT":     c.DBPort,
		"DB_USER":     c.DBUser,
		"DB_NAME":     c.DBName,
		"JWT_SECRET":  c.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// lookup resolves one value: environment variable first, then the Docker
// secret of the lower-cased name, then the default.
func lookup(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value := readSecret(strings.ToLower(name)); value != "" {
		return value
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
