package aggregate

import (
	"time"

	"fitlog/internal/core"
	"fitlog/internal/ledger"
)

// Mark is the per-exercise completion indicator of a calendar cell.
type Mark string

const (
	MarkComplete Mark = "complete"
	MarkPartial  Mark = "partial"
	MarkNone     Mark = "none"
)

type Cell struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	InMonth bool   `json:"inMonth"`
	Today   bool   `json:"today"`
	// Record is nil when the ledger has no entry for Date.
	Record *core.DailyRecord `json:"record,omitempty"`
	// Marks follow core.Exercises order; empty when Record is nil.
	Marks []Mark `json:"marks,omitempty"`
}

// MarkOf derives a cell mark from an exercise's progress.
func MarkOf(p ExerciseProgress) Mark {
	switch {
	case p.Tier == TierComplete:
		return MarkComplete
	case p.Value > 0:
		return MarkPartial
	default:
		return MarkNone
	}
}

// MonthGrid lays out the given month in whole weeks, Sunday first. Leading
// and trailing days of the adjacent months fill the first and last week.
// today is a date key and may be empty.
func MonthGrid(year int, month time.Month, snap ledger.Snapshot, goals core.Goals, today string) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	index := snap.Index()
	var cells []Cell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := core.KeyOf(d)
		c := Cell{
			Date:    key,
			Day:     d.Day(),
			InMonth: d.Month() == first.Month(),
			Today:   key == today,
		}
		if rec, ok := index[key]; ok {
			c.Record = &rec
			for _, p := range Progress(rec, goals) {
				c.Marks = append(c.Marks, MarkOf(p))
			}
		}
		cells = append(cells, c)
	}
	return cells
}
