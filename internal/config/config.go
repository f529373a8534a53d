package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"financeiro/internal/cloud"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Ledger encryption
	EncryptionKey string

	// Cloud sync
	SyncToken    string
	SyncURL      string
	SyncDebounce time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financeiro.db"),

		EncryptionKey: getEnv("ENCRYPTION_KEY", "chave-secreta-financeiro-2024"),

		SyncToken:    getEnv("SYNC_TOKEN", "FINANCEIRO_2024_TOKEN_XYZ"),
		SyncURL:      getEnv("SYNC_URL", ""),
		SyncDebounce: getEnvDuration("SYNC_DEBOUNCE", 2*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate encryption key
	if c.EncryptionKey == "" {
		errors = append(errors, "encryption key cannot be empty")
	}

	// Validate sync configuration
	if c.SyncURL != "" && !cloud.ValidateSyncURL(c.SyncURL) {
		errors = append(errors, fmt.Sprintf("invalid sync URL '%s': must be https, or http to localhost", c.SyncURL))
	}
	if c.SyncURL != "" && c.SyncToken == "" {
		errors = append(errors, "sync token cannot be empty when a sync URL is configured")
	}

	if c.SyncDebounce < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid sync debounce %v: must be at least 100ms", c.SyncDebounce))
	} else if c.SyncDebounce > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid sync debounce %v: must be at most 1 minute", c.SyncDebounce))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
