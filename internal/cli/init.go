// Package cli provides common CLI initialization utilities shared by
// cmd/fitlog and cmd/fitlog-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fitlog/internal/amqp"
	"fitlog/internal/backup"
	"fitlog/internal/config"
	"fitlog/internal/log"
	gsheet "fitlog/internal/sheets/google"
	"fitlog/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL, LOG_FORMAT and
// LOG_FILE and installs it as the slog default. An unknown level falls
// back to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, io.Closer) {
	lc := log.DefaultConfig()
	lc.Component = component
	lc.Format = cfg.LogFormat
	lc.File = cfg.LogFile
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	logger, closer := log.New(lc)
	log.SetDefault(logger)
	return logger, closer
}

// ValidateConfig runs the given checks and exits the process on the first
// failure.
func ValidateConfig(logger *log.Logger, checks ...func() error) {
	for _, check := range checks {
		if err := check(); err != nil {
			logger.Error("Configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
	}
}

// NewRegistry returns a registry carrying build info, Go runtime and
// process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// InitStore opens the configured document store.
func InitStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLiteDBPath, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}

// NewSheetsClient connects to the configured spreadsheet with service
// account credentials.
func NewSheetsClient(ctx context.Context, cfg *config.Config) (*gsheet.Client, error) {
	return gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
}

// BuildTransport returns the configured backup transport, or nil for
// "none". The closer releases any connection the transport holds.
func BuildTransport(ctx context.Context, cfg *config.Config) (backup.Transport, io.Closer, error) {
	switch cfg.BackupTransport {
	case config.TransportNone, "":
		return nil, nopCloser{}, nil
	case config.TransportWebhook:
		return backup.NewWebhookTransport(cfg.BackupWebhookURL), nopCloser{}, nil
	case config.TransportSheets:
		client, err := NewSheetsClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return backup.SheetTransport{Writer: client}, nopCloser{}, nil
	case config.TransportAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("connect AMQP: %w", err)
		}
		return client, client, nil
	}
	return nil, nil, fmt.Errorf("unknown backup transport %q", cfg.BackupTransport)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
	}()
	return ctx, stop
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
