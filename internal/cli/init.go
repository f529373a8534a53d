// Package cli holds the shared process bootstrap: env file, logger,
// validated configuration, and signal-driven shutdown.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financeiro/internal/backend"
	"financeiro/internal/config"
	"financeiro/internal/log"
)

// SetupLogger builds the application logger and installs it as the process
// default so package-level slog calls share the handler.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is
// fine; deployments configure through real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads configuration from the environment and exits
// the process when it does not validate.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend selects and opens the configured state store. Exits the
// process on failure; the returned cleanup may be nil.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.With(log.FieldComponent, log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize state store", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
