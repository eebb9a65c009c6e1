package cli

import (
	"context"
	"path/filepath"
	"testing"

	"fitlog/internal/backup"
	"fitlog/internal/config"
	"fitlog/internal/storage"
)

func TestInitStore(t *testing.T) {
	s, err := InitStore(&config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*storage.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}

	s, err = InitStore(&config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "fitlog.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := InitStore(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildTransport(t *testing.T) {
	ctx := context.Background()

	tr, closer, err := BuildTransport(ctx, &config.Config{BackupTransport: config.TransportNone})
	if err != nil || tr != nil || closer == nil {
		t.Fatalf("none: %v %v %v", tr, closer, err)
	}

	tr, closer, err = BuildTransport(ctx, &config.Config{
		BackupTransport:  config.TransportWebhook,
		BackupWebhookURL: "https://example.com/hook",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if w, ok := tr.(*backup.WebhookTransport); !ok || w.URL != "https://example.com/hook" {
		t.Fatalf("webhook: %T %+v", tr, tr)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, _, err := BuildTransport(ctx, &config.Config{BackupTransport: config.TransportSheets}); err == nil {
		t.Fatal("expected error for sheets without spreadsheet ID")
	}

	if _, _, err := BuildTransport(ctx, &config.Config{BackupTransport: "fax"}); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	logger, closer := SetupLogger(&config.Config{LogLevel: "chatty", LogFormat: "json"}, "test")
	defer closer.Close()
	if logger.Component() != "test" {
		t.Fatalf("component %q", logger.Component())
	}
	if logger.Enabled(context.Background(), -4) {
		t.Fatal("debug should be disabled when the level is unknown")
	}
}
