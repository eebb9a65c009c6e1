package sheets

import (
	"context"

	"fitlog/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter stores one day per row, keyed by date. Writing a date that
	// already has a row overwrites that row.
	RecordWriter interface {
		UpsertDay(ctx context.Context, date string, rec core.DailyRecord) (rowRef string, err error)
	}
)

// Header is the first row written to an empty sheet.
var Header = []string{"Date", "Pushups", "Pullups", "Squats", "Dead hang"}
