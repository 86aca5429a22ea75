// Package cli provides common CLI initialization utilities shared by
// cmd/controle and cmd/controle-worker.
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"controle/internal/config"
	"controle/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the environment before the
// full configuration is parsed, and installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	logger := log.ForEnv(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), component)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
// In development an empty JWT secret is replaced by a random one so that
// sessions work out of the box; they do not survive restarts.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() && cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral development secret")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
