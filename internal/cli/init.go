// Package cli provides common CLI initialization utilities for cmd/gastos.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gastos/internal/config"
	applog "gastos/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from config and sets it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config) *applog.Logger {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for main: it exits the process
// with a log line on validation failure.
func MustLoadConfig() (*config.Config, *applog.Logger) {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		// Logging config may itself be invalid; use the defaults to report.
		logger := applog.New(applog.DefaultConfig())
		logger.Error("Configuration validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg, SetupLogger(cfg)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Describe renders a one-line startup summary of the configured source.
func Describe(cfg *config.Config) string {
	switch cfg.DataSource {
	case config.SourceURL:
		return fmt.Sprintf("csv export %s", cfg.SourceURL)
	case config.SourceSheets:
		return fmt.Sprintf("google sheets %s", cfg.GoogleSpreadsheetID)
	case config.SourceFile:
		return fmt.Sprintf("file %s", cfg.SourceFile)
	default:
		return "xlsx upload"
	}
}
