// Package ledger holds the activity ledger: one DailyRecord per calendar
// date, kept in insertion order and persisted wholesale after every change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fitlog/internal/core"
	"fitlog/internal/storage"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

type Options struct {
	// Now defaults to time.Now.
	Now Clock
	// Location decides which calendar day "today" is. Defaults to time.Local.
	Location *time.Location
}

type Ledger struct {
	mu      sync.RWMutex
	store   storage.Store
	now     Clock
	loc     *time.Location
	keys    []string
	records map[string]core.DailyRecord
}

// Snapshot is an insertion-ordered copy of the ledger.
type Snapshot []core.Entry

// New returns an empty ledger backed by store.
func New(store storage.Store, opts Options) *Ledger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Ledger{
		store:   store,
		now:     opts.Now,
		loc:     opts.Location,
		records: make(map[string]core.DailyRecord),
	}
}

// Load restores the ledger persisted in store, or returns an empty one
// when nothing has been saved yet.
func Load(ctx context.Context, store storage.Store, opts Options) (*Ledger, error) {
	l := New(store, opts)
	data, err := store.Load(ctx, storage.LedgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No persisted ledger, starting empty")
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	for _, e := range entries {
		if !core.ValidDateKey(e.Date) {
			slog.WarnContext(ctx, "Skipping ledger entry with invalid date key", "date", e.Date)
			continue
		}
		l.set(e.Date, e.Record.Clamp())
	}
	slog.InfoContext(ctx, "Ledger loaded", "entries", len(l.keys))
	return l, nil
}

// Today returns the date key for the current day.
func (l *Ledger) Today() string {
	return core.KeyOf(l.Now())
}

// Now returns the current time in the ledger's location.
func (l *Ledger) Now() time.Time {
	return l.now().In(l.loc)
}

func (l *Ledger) Location() *time.Location {
	return l.loc
}

// MergeToday adds delta to today's record and returns the result.
func (l *Ledger) MergeToday(ctx context.Context, delta core.DailyRecord) (core.DailyRecord, error) {
	return l.Merge(ctx, l.Today(), delta)
}

// Merge adds delta's counts to the record stored under key, creating a
// zero record first if absent. A non-empty hold duration replaces the
// stored one.
func (l *Ledger) Merge(ctx context.Context, key string, delta core.DailyRecord) (core.DailyRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated := l.records[key].Merge(delta.Clamp())
	if err := l.mutate(ctx, key, &updated); err != nil {
		return core.DailyRecord{}, err
	}
	return updated, nil
}

// Replace overwrites the record stored under key.
func (l *Ledger) Replace(ctx context.Context, key string, rec core.DailyRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec = rec.Clamp()
	return l.mutate(ctx, key, &rec)
}

// Remove deletes the record stored under key. Removing an absent key is a no-op.
func (l *Ledger) Remove(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[key]; !ok {
		return nil
	}
	return l.mutate(ctx, key, nil)
}

// Get returns the record for key, or the zero record. It never creates an entry.
func (l *Ledger) Get(key string) core.DailyRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records[key]
}

// Lookup returns the record for key and whether an entry exists, read
// under one lock so the two always agree.
func (l *Ledger) Lookup(key string) (core.DailyRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[key]
	return rec, ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keys)
}

// Snapshot copies the ledger in insertion order.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := make(Snapshot, len(l.keys))
	for i, k := range l.keys {
		snap[i] = core.Entry{Date: k, Record: l.records[k]}
	}
	return snap
}

// mutate applies the change (rec == nil deletes) and persists the whole
// ledger. On a persistence failure the change is rolled back.
// Callers hold l.mu.
func (l *Ledger) mutate(ctx context.Context, key string, rec *core.DailyRecord) error {
	prevKeys := append([]string(nil), l.keys...)
	prev, existed := l.records[key]

	if rec == nil {
		l.delete(key)
	} else {
		l.set(key, *rec)
	}

	if err := l.persist(ctx); err != nil {
		l.keys = prevKeys
		if existed {
			l.records[key] = prev
		} else {
			delete(l.records, key)
		}
		return err
	}
	return nil
}

func (l *Ledger) set(key string, rec core.DailyRecord) {
	if _, ok := l.records[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.records[key] = rec
}

func (l *Ledger) delete(key string) {
	delete(l.records, key)
	for i, k := range l.keys {
		if k == key {
			l.keys = append(l.keys[:i:i], l.keys[i+1:]...)
			break
		}
	}
}

func (l *Ledger) persist(ctx context.Context) error {
	entries := make([]core.Entry, len(l.keys))
	for i, k := range l.keys {
		entries[i] = core.Entry{Date: k, Record: l.records[k]}
	}
	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.store.Save(ctx, storage.LedgerKey, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// Get looks up key in the snapshot.
func (s Snapshot) Get(key string) (core.DailyRecord, bool) {
	for _, e := range s {
		if e.Date == key {
			return e.Record, true
		}
	}
	return core.DailyRecord{}, false
}

// Index builds a key lookup for the snapshot.
func (s Snapshot) Index() map[string]core.DailyRecord {
	m := make(map[string]core.DailyRecord, len(s))
	for _, e := range s {
		m[e.Date] = e.Record
	}
	return m
}
