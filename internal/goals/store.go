// Package goals keeps the three daily targets and persists them on change.
package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fitlog/internal/core"
	"fitlog/internal/debounce"
	"fitlog/internal/storage"
)

// DefaultDebounce is how long goal edits must settle before they are saved.
const DefaultDebounce = 400 * time.Millisecond

type Store struct {
	store    storage.Store
	debounce *debounce.Debouncer

	mu      sync.RWMutex
	current core.Goals

	// OnSaved, if set, runs after every successful save.
	OnSaved func(core.Goals)
}

// Load reads persisted goals, falling back to the defaults.
func Load(ctx context.Context, store storage.Store, debounceDelay time.Duration) (*Store, error) {
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}
	s := &Store{
		store:    store,
		debounce: debounce.New(debounceDelay),
		current:  core.DefaultGoals(),
	}

	data, err := store.Load(ctx, storage.GoalsKey)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No persisted goals, using defaults", "goals", s.current)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	var g core.Goals
	if err := json.Unmarshal(data, &g); err != nil {
		slog.WarnContext(ctx, "Persisted goals unreadable, using defaults", "error", err)
		return s, nil
	}
	s.current = g.Clamp()
	return s, nil
}

// Current returns the goals in effect.
func (s *Store) Current() core.Goals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set persists g and makes it current. Negative targets are stored as 0.
func (s *Store) Set(ctx context.Context, g core.Goals) error {
	g = g.Clamp()
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}

	s.mu.Lock()
	if err := s.store.Save(ctx, storage.GoalsKey, data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist goals: %w", err)
	}
	s.current = g
	s.mu.Unlock()

	slog.InfoContext(ctx, "Goals saved", "pushups", g.Pushups, "pullups", g.Pullups, "squats", g.Squats)
	if s.OnSaved != nil {
		s.OnSaved(g)
	}
	return nil
}

// SetLater schedules a debounced Set. Only the last goals of a burst of
// edits are persisted.
func (s *Store) SetLater(g core.Goals) {
	s.debounce.Schedule(func() {
		if err := s.Set(context.Background(), g); err != nil {
			slog.Error("Debounced goal save failed", "error", err)
		}
	})
}

// Flush saves any pending debounced edit immediately and waits for a save
// the timer already started.
func (s *Store) Flush() bool {
	return s.debounce.Flush()
}

// Pending reports whether a debounced edit has not been saved yet.
func (s *Store) Pending() bool {
	return s.debounce.Pending()
}
