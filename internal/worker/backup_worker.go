package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fitlog/internal/amqp"
	"fitlog/internal/core"
	"fitlog/internal/sheets"
)

// BackupWorker writes backed-up days into the sheet.
type BackupWorker struct {
	sheets sheets.RecordWriter
}

func NewBackupWorker(w sheets.RecordWriter) *BackupWorker {
	return &BackupWorker{sheets: w}
}

// HandleBackupMessage upserts the day carried by one AMQP message.
func (w *BackupWorker) HandleBackupMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	slog.InfoContext(ctx, "Processing backup message",
		"date", msg.Date,
		"published_at", msg.Timestamp)

	ref, err := w.sheets.UpsertDay(ctx, msg.Date, msg.Record())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", msg.Date, err)
	}

	slog.InfoContext(ctx, "Backed up day",
		"date", msg.Date,
		"sheets_ref", ref)
	return nil
}

// StartupSync pushes every local day to the sheet. It covers messages lost
// while the worker or broker was down; failures are logged and skipped.
func (w *BackupWorker) StartupSync(ctx context.Context, entries []core.Entry) (synced int, err error) {
	if len(entries) == 0 {
		slog.InfoContext(ctx, "No local days to sync on startup")
		return 0, nil
	}
	slog.InfoContext(ctx, "Syncing local days on startup", "count", len(entries))

	failed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if _, err := w.sheets.UpsertDay(ctx, e.Date, e.Record); err != nil {
			slog.ErrorContext(ctx, "Failed to sync day during startup", "date", e.Date, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(entries),
		"synced", synced,
		"errors", failed)
	return synced, nil
}
