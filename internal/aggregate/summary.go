package aggregate

import (
	"time"

	"fitlog/internal/core"
	"fitlog/internal/ledger"
)

type Window string

const (
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowYear    Window = "year"
	WindowAllTime Window = "allTime"
)

// Summary holds the totals of every window. It is never stored.
type Summary struct {
	Week    core.Totals `json:"week"`
	Month   core.Totals `json:"month"`
	Year    core.Totals `json:"year"`
	AllTime core.Totals `json:"allTime"`
}

// WindowStarts returns the first date key of the week (Sunday), month and
// year containing now, in now's location.
func WindowStarts(now time.Time) (week, month, year string) {
	y, m, d := now.Date()
	loc := now.Location()
	week = core.KeyOf(time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc))
	month = core.KeyOf(time.Date(y, m, 1, 0, 0, 0, 0, loc))
	year = core.KeyOf(time.Date(y, time.January, 1, 0, 0, 0, 0, loc))
	return week, month, year
}

// Summarize totals the snapshot over the week, month, year and all-time
// windows. A date belongs to a window when its key sorts at or after the
// window start. Hold durations are not summed.
func Summarize(snap ledger.Snapshot, now time.Time) Summary {
	week, month, year := WindowStarts(now)
	var s Summary
	for _, e := range snap {
		if e.Date >= week {
			s.Week = s.Week.Add(e.Record)
		}
		if e.Date >= month {
			s.Month = s.Month.Add(e.Record)
		}
		if e.Date >= year {
			s.Year = s.Year.Add(e.Record)
		}
		s.AllTime = s.AllTime.Add(e.Record)
	}
	return s
}

// Get returns the totals for w.
func (s Summary) Get(w Window) core.Totals {
	switch w {
	case WindowWeek:
		return s.Week
	case WindowMonth:
		return s.Month
	case WindowYear:
		return s.Year
	}
	return s.AllTime
}
