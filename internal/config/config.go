// Package config loads the converter's configuration from environment
// variables with sensible defaults. A local .env file is honored when
// present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Addr     string
	LogLevel string

	// Upload limit for the convert endpoint, in bytes.
	MaxUploadBytes int

	// CLI defaults
	OutputDir string
}

// LoadDotEnv loads a .env file if it exists; missing files are not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 32<<20),
		OutputDir:      getEnv("OUTPUT_DIR", "out"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
