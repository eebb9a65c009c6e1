package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"fitlog/internal/cache"
	"fitlog/internal/core"
	ports "fitlog/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultSheetName = "Workouts"
	rowCacheSize     = 1024
	rowCacheTTL      = 30 * time.Minute
)

// Options configure a Client. Credentials come from CredentialsJSON, then
// CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client writes days into a yearly tab such as "2024 Workouts", one row per
// date with the columns of ports.Header. Row positions are remembered for
// rowCacheTTL so repeated upserts of a date skip the column read.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	rows          *cache.LRUCache[int]
}

var _ ports.RecordWriter = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetName,
		rows:          cache.NewLRUCache[int](rowCacheSize, rowCacheTTL),
	}
}

// RowCache exposes the row position cache so it can be swept by a
// cache.Manager.
func (c *Client) RowCache() cache.Cleaner {
	return c.rows
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// UpsertDay overwrites the row holding date, or appends one when the date
// is not in the sheet yet. An empty sheet gets the header row first.
func (c *Client) UpsertDay(ctx context.Context, date string, rec core.DailyRecord) (string, error) {
	if !core.ValidDateKey(date) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidDateKey, date)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := c.sheetFor(date)
	key := sheet + "|" + date
	row := rowValues(date, rec)

	if n, ok := c.cachedRow(key); ok {
		ref, err := c.updateRow(ctx, sheet, n, row)
		if err == nil {
			slog.DebugContext(ctx, "Sheet row updated", "date", date, "range", ref, "cached", true)
			return ref, nil
		}
		c.forgetRow(key)
		return "", err
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read dates from %s: %w", sheet, err)
	}

	if n := findRow(resp.Values, date); n > 0 {
		ref, err := c.updateRow(ctx, sheet, n, row)
		if err != nil {
			return "", err
		}
		c.rememberRow(key, n)
		slog.DebugContext(ctx, "Sheet row updated", "date", date, "range", ref)
		return ref, nil
	}

	values := [][]any{row}
	if len(resp.Values) == 0 {
		values = [][]any{headerValues(), row}
	}
	appendRange := fmt.Sprintf("%s!A:E", sheet)
	out, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	ref := appendRange
	if out != nil && out.Updates != nil && out.Updates.UpdatedRange != "" {
		ref = out.Updates.UpdatedRange
		if n := lastRow(ref); n > 0 {
			c.rememberRow(key, n)
		}
	}
	slog.DebugContext(ctx, "Sheet row appended", "date", date, "range", ref)
	return ref, nil
}

func (c *Client) updateRow(ctx context.Context, sheet string, n int, row []any) (string, error) {
	ref := fmt.Sprintf("%s!A%d:E%d", sheet, n, n)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}
	return ref, nil
}

func (c *Client) cachedRow(key string) (int, bool) {
	if c.rows == nil {
		return 0, false
	}
	return c.rows.Get(key)
}

func (c *Client) rememberRow(key string, n int) {
	if c.rows != nil {
		c.rows.Set(key, n)
	}
}

func (c *Client) forgetRow(key string) {
	if c.rows != nil {
		c.rows.Delete(key)
	}
}

func (c *Client) sheetFor(date string) string {
	year, _ := strconv.Atoi(date[:4])
	return yearPrefixedName(c.sheetBase, year)
}

// findRow returns the 1-based row whose first cell equals date, or 0.
func findRow(values [][]any, date string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if toStrings(row[:1])[0] == date {
			return i + 1
		}
	}
	return 0
}

// lastRow returns the final row number of an A1 range such as
// "2024 Workouts!A2:E3", or 0 when it cannot be read.
func lastRow(ref string) int {
	_, cells, ok := strings.Cut(ref, "!")
	if !ok {
		return 0
	}
	if _, end, found := strings.Cut(cells, ":"); found {
		cells = end
	}
	n, err := strconv.Atoi(strings.TrimLeft(cells, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return 0
	}
	return n
}

func rowValues(date string, rec core.DailyRecord) []any {
	return []any{date, rec.Pushups, rec.Pullups, rec.Squats, rec.DeadHang}
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
