// Package config provides environment-based configuration for the rcc commands.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"github.com/dpshade22/recursive-context-copy/internal/logging"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// Config holds the command configuration.
type Config struct {
	VaultDir     string
	Depth        int
	Workers      int
	CacheSize    int
	LogLevel     string
	LogFormat    string
	SettingsPath string
}

// NewConfig loads configuration from environment variables, after reading
// a .env file from the working directory if one exists.
// Environment variables are prefixed with RCC_.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	config.VaultDir = getEnv("RCC_VAULT", "")
	config.Depth = getEnvAsInt("RCC_DEPTH", 1)
	config.Workers = getEnvAsInt("RCC_WORKERS", 8)
	config.CacheSize = getEnvAsInt("RCC_CACHE_SIZE", vault.DefaultCacheSize)
	config.LogLevel = strings.ToLower(getEnv("RCC_LOG_LEVEL", "info"))
	config.LogFormat = strings.ToLower(getEnv("RCC_LOG_FORMAT", "text"))
	config.SettingsPath = getEnv("RCC_SETTINGS", settings.DefaultPath())

	if config.VaultDir == "" {
		return config, errors.New("RCC_VAULT environment variable is required")
	}

	return config, nil
}

// Validate checks the configuration after flag overrides have been applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.VaultDir, validation.Required.Error("vault directory is required (set RCC_VAULT or use -vault)")),
		validation.Field(&c.Depth, validation.Min(0), validation.Max(settings.MaxDepth)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In(toAny(logging.Levels)...)),
		validation.Field(&c.LogFormat, validation.In(toAny(logging.Formats)...)),
	)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
