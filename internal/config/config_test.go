package config

import (
	"os"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid sqlite backend config",
			config: Config{
				Port:          "8081",
				DataBackend:   "sqlite",
				SQLiteDBPath:  "./test.db",
				EncryptionKey: "secret",
				SyncToken:     "token",
				SyncDebounce:  2 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "valid memory backend config",
			config: Config{
				Port:          "8081",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncToken:     "token",
				SyncDebounce:  2 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:          "abc",
				DataBackend:   "sqlite",
				SQLiteDBPath:  "./test.db",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range low",
			config: Config{
				Port:          "0",
				DataBackend:   "sqlite",
				SQLiteDBPath:  "./test.db",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name: "invalid port - out of range high",
			config: Config{
				Port:          "70000",
				DataBackend:   "sqlite",
				SQLiteDBPath:  "./test.db",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "invalid data backend",
			config: Config{
				Port:          "8080",
				DataBackend:   "invalid",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid data backend 'invalid': must be one of [memory sqlite]",
		},
		{
			name: "sqlite backend missing database path",
			config: Config{
				Port:          "8080",
				DataBackend:   "sqlite",
				SQLiteDBPath:  "",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name: "empty encryption key",
			config: Config{
				Port:         "8080",
				DataBackend:  "memory",
				SyncDebounce: 2 * time.Second,
			},
			wantErr:     true,
			errorString: "encryption key cannot be empty",
		},
		{
			name: "invalid sync URL scheme",
			config: Config{
				Port:          "8080",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncToken:     "token",
				SyncURL:       "ftp://example.com/exec",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid sync URL",
		},
		{
			name: "plain http sync URL to non-local host",
			config: Config{
				Port:          "8080",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncToken:     "token",
				SyncURL:       "http://example.com/exec",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid sync URL",
		},
		{
			name: "sync URL without token",
			config: Config{
				Port:          "8080",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncToken:     "",
				SyncURL:       "https://example.com/exec",
				SyncDebounce:  2 * time.Second,
			},
			wantErr:     true,
			errorString: "sync token cannot be empty when a sync URL is configured",
		},
		{
			name: "invalid sync debounce - too short",
			config: Config{
				Port:          "8080",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncDebounce:  50 * time.Millisecond,
			},
			wantErr:     true,
			errorString: "invalid sync debounce 50ms: must be at least 100ms",
		},
		{
			name: "invalid sync debounce - too long",
			config: Config{
				Port:          "8080",
				DataBackend:   "memory",
				EncryptionKey: "secret",
				SyncDebounce:  2 * time.Minute,
			},
			wantErr:     true,
			errorString: "invalid sync debounce 2m0s: must be at most 1 minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalVars := map[string]string{
		"PORT":           os.Getenv("PORT"),
		"DATA_BACKEND":   os.Getenv("DATA_BACKEND"),
		"SQLITE_DB_PATH": os.Getenv("SQLITE_DB_PATH"),
		"ENCRYPTION_KEY": os.Getenv("ENCRYPTION_KEY"),
		"SYNC_TOKEN":     os.Getenv("SYNC_TOKEN"),
		"SYNC_URL":       os.Getenv("SYNC_URL"),
		"SYNC_DEBOUNCE":  os.Getenv("SYNC_DEBOUNCE"),
	}

	// Clean environment
	for key := range originalVars {
		os.Unsetenv(key)
	}

	// Restore env vars at end of test
	defer func() {
		for key, value := range originalVars {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "./data/financeiro.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/financeiro.db", cfg.SQLiteDBPath)
		}
		if cfg.SyncDebounce != 2*time.Second {
			t.Errorf("Load() SyncDebounce = %v, want 2s", cfg.SyncDebounce)
		}
		if cfg.SyncURL != "" {
			t.Errorf("Load() SyncURL = %v, want empty", cfg.SyncURL)
		}
		if cfg.EncryptionKey == "" {
			t.Error("Load() EncryptionKey is empty")
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		os.Setenv("PORT", "9090")
		os.Setenv("DATA_BACKEND", "memory")
		os.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		os.Setenv("ENCRYPTION_KEY", "env-secret")
		os.Setenv("SYNC_TOKEN", "env-token")
		os.Setenv("SYNC_URL", "https://sheet.example/exec")
		os.Setenv("SYNC_DEBOUNCE", "5s")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("Load() DataBackend = %v, want memory", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.EncryptionKey != "env-secret" {
			t.Errorf("Load() EncryptionKey = %v, want env-secret", cfg.EncryptionKey)
		}
		if cfg.SyncToken != "env-token" {
			t.Errorf("Load() SyncToken = %v, want env-token", cfg.SyncToken)
		}
		if cfg.SyncURL != "https://sheet.example/exec" {
			t.Errorf("Load() SyncURL = %v, want https://sheet.example/exec", cfg.SyncURL)
		}
		if cfg.SyncDebounce != 5*time.Second {
			t.Errorf("Load() SyncDebounce = %v, want 5s", cfg.SyncDebounce)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		os.Setenv("SYNC_DEBOUNCE", "invalid")

		cfg := Load()

		if cfg.SyncDebounce != 2*time.Second {
			t.Errorf("Load() SyncDebounce = %v, want 2s (default for invalid input)", cfg.SyncDebounce)
		}
	})
}

// Helper function to check if string contains substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || func() bool {
		for i := 0; i <= len(s)-len(substr); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}())
}
