// Package tracker is the application state: the ledger, the goal store and
// the backup notifier behind one mutex. Every user action goes through it.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fitlog/internal/aggregate"
	"fitlog/internal/backup"
	"fitlog/internal/core"
	"fitlog/internal/goals"
	"fitlog/internal/ledger"
)

// Notifier receives every day written by LogToday or EditDay.
type Notifier interface {
	Notify(date string, rec core.DailyRecord)
}

type Tracker struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	goals    *goals.Store
	notifier Notifier
}

var _ Notifier = (*backup.Notifier)(nil)

// New composes the tracker. notifier may be nil.
func New(l *ledger.Ledger, g *goals.Store, notifier Notifier) *Tracker {
	return &Tracker{ledger: l, goals: g, notifier: notifier}
}

// LogToday adds a session to today's record. Counts are additive; a
// non-empty hold duration replaces today's. The merged day is backed up
// once it has been persisted.
func (t *Tracker) LogToday(ctx context.Context, delta core.DailyRecord) (string, core.DailyRecord, error) {
	if err := core.ValidateRecord(delta); err != nil {
		return "", core.DailyRecord{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.ledger.Today()
	rec, err := t.ledger.Merge(ctx, date, delta)
	if err != nil {
		return "", core.DailyRecord{}, fmt.Errorf("log today: %w", err)
	}
	slog.InfoContext(ctx, "Session logged", "date", date, "pushups", rec.Pushups, "pullups", rec.Pullups, "squats", rec.Squats)
	t.notify(date, rec)
	return date, rec, nil
}

// EditDay overwrites the record for date with absolute values.
func (t *Tracker) EditDay(ctx context.Context, date string, rec core.DailyRecord) error {
	if !core.ValidDateKey(date) {
		return fmt.Errorf("%w: %q", core.ErrInvalidDateKey, date)
	}
	if err := core.ValidateRecord(rec); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Replace(ctx, date, rec); err != nil {
		return fmt.Errorf("edit %s: %w", date, err)
	}
	slog.InfoContext(ctx, "Day edited", "date", date)
	t.notify(date, rec)
	return nil
}

// DeleteDay removes date from the ledger. Deletions are not backed up.
func (t *Tracker) DeleteDay(ctx context.Context, date string) error {
	if !core.ValidDateKey(date) {
		return fmt.Errorf("%w: %q", core.ErrInvalidDateKey, date)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Remove(ctx, date); err != nil {
		return fmt.Errorf("delete %s: %w", date, err)
	}
	slog.InfoContext(ctx, "Day deleted", "date", date)
	return nil
}

func (t *Tracker) notify(date string, rec core.DailyRecord) {
	if t.notifier == nil {
		return
	}
	t.notifier.Notify(date, rec)
}

// Day returns the record for date and whether the ledger has an entry.
func (t *Tracker) Day(date string) (core.DailyRecord, bool) {
	return t.ledger.Lookup(date)
}

// Today returns today's date key and record.
func (t *Tracker) Today() (string, core.DailyRecord) {
	date := t.ledger.Today()
	return date, t.ledger.Get(date)
}

func (t *Tracker) Now() time.Time {
	return t.ledger.Now()
}

func (t *Tracker) Goals() core.Goals {
	return t.goals.Current()
}

// SetGoals replaces the goals and persists them immediately.
func (t *Tracker) SetGoals(ctx context.Context, g core.Goals) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.goals.Set(ctx, g)
}

// DraftGoals records an in-progress goal edit. Only the last draft of a
// burst is persisted, after the debounce delay.
func (t *Tracker) DraftGoals(g core.Goals) {
	t.goals.SetLater(g)
}

// FlushGoals persists any pending goal draft now.
func (t *Tracker) FlushGoals() bool {
	return t.goals.Flush()
}

func (t *Tracker) Snapshot() ledger.Snapshot {
	return t.ledger.Snapshot()
}

// TodayProgress measures today's record against the current goals.
func (t *Tracker) TodayProgress() aggregate.ProgressReport {
	_, rec := t.Today()
	return aggregate.Progress(rec, t.Goals())
}

func (t *Tracker) Summary() aggregate.Summary {
	return aggregate.Summarize(t.ledger.Snapshot(), t.ledger.Now())
}

// History returns every entry ordered by key.
func (t *Tracker) History(key aggregate.SortKey, ascending bool) []core.Entry {
	return aggregate.Collect(aggregate.SortedEntries(t.ledger.Snapshot(), key, ascending))
}

// Calendar lays out one month with today's cell flagged.
func (t *Tracker) Calendar(year int, month time.Month) []aggregate.Cell {
	return aggregate.MonthGrid(year, month, t.ledger.Snapshot(), t.Goals(), t.ledger.Today())
}
