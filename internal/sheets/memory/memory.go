package memory

import (
	"context"
	"fmt"
	"sync"

	"fitlog/internal/core"
	ports "fitlog/internal/sheets"
)

// Store keeps one row per date in memory. It stands in for the Google
// client in tests and when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.DailyRecord
}

var _ ports.RecordWriter = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[string]core.DailyRecord)}
}

// UpsertDay stores the record and returns a synthetic row reference.
func (s *Store) UpsertDay(_ context.Context, date string, rec core.DailyRecord) (string, error) {
	if !core.ValidDateKey(date) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidDateKey, date)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[date]; !ok {
		s.order = append(s.order, date)
	}
	s.rows[date] = rec
	return fmt.Sprintf("mem:%s", date), nil
}

// Days returns the stored rows in first-written order.
func (s *Store) Days() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, 0, len(s.order))
	for _, d := range s.order {
		out = append(out, core.Entry{Date: d, Record: s.rows[d]})
	}
	return out
}
