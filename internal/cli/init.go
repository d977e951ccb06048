// Package cli provides common initialization for the chamada binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/backend"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/config"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets"
	gsheet "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets/google"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets/memory"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the default logger described by cfg, writing to w,
// and returns it stamped with component.
func SetupLogger(w io.Writer, cfg *config.Config, component string) *applog.Logger {
	level := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: component,
		Handler:   applog.NewHandler(w, cfg.LogFormat, level),
	})
	applog.SetDefault(logger)
	return logger.WithComponent(component)
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			"error", err)
		os.Exit(1)
	}
	return cfg
}

// Location resolves the configured timezone, falling back to UTC.
func Location(cfg *config.Config) *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// OpenBackend builds the storage backend selected by cfg.
// Exits the process on failure.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewPublisher returns the Google Sheets publisher when configured and an
// in-memory one otherwise.
func NewPublisher(ctx context.Context, cfg *config.Config) (sheets.Publisher, error) {
	if !cfg.SheetsEnabled() {
		slog.Info("Google Sheets disabled, publishing to memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("google sheets client: %w", err)
	}
	slog.Info("Google Sheets publisher initialized", applog.FieldSpreadsheet, cfg.GoogleSpreadsheetID)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
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
