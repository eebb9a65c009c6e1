package backup

import (
	"context"
	"log/slog"

	"fitlog/internal/sheets"
)

// SheetTransport upserts each payload directly into a sheet.
type SheetTransport struct {
	Writer sheets.RecordWriter
}

var _ Transport = SheetTransport{}

func (s SheetTransport) Send(ctx context.Context, p Payload) error {
	ref, err := s.Writer.UpsertDay(ctx, p.Date, p.Record())
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Backup written to sheet", "date", p.Date, "ref", ref)
	return nil
}
