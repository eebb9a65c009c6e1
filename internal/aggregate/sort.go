package aggregate

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"sync"

	"fitlog/internal/core"
	"fitlog/internal/ledger"
)

type SortKey string

const (
	SortDate     SortKey = "date"
	SortPushups  SortKey = "pushups"
	SortPullups  SortKey = "pullups"
	SortSquats   SortKey = "squats"
	SortDeadHang SortKey = "deadHang"
)

// ParseSortKey maps a column name to a SortKey, falling back to SortDate.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortDate, SortPushups, SortPullups, SortSquats, SortDeadHang:
		return k
	}
	return SortDate
}

// SortedEntries yields the snapshot ordered by key. Sorting happens on the
// first iteration and the sequence may be ranged over any number of times.
// The sort is stable, so ties keep ledger insertion order in both
// directions.
func SortedEntries(snap ledger.Snapshot, key SortKey, ascending bool) iter.Seq2[string, core.DailyRecord] {
	entries := slices.Clone(snap)
	sorted := sync.OnceValue(func() []core.Entry {
		cmpFn := comparator(key)
		slices.SortStableFunc(entries, func(a, b core.Entry) int {
			if ascending {
				return cmpFn(a, b)
			}
			return cmpFn(b, a)
		})
		return entries
	})

	return func(yield func(string, core.DailyRecord) bool) {
		for _, e := range sorted() {
			if !yield(e.Date, e.Record) {
				return
			}
		}
	}
}

// Collect drains a sorted sequence into a slice.
func Collect(seq iter.Seq2[string, core.DailyRecord]) []core.Entry {
	var out []core.Entry
	for date, rec := range seq {
		out = append(out, core.Entry{Date: date, Record: rec})
	}
	return out
}

func comparator(key SortKey) func(a, b core.Entry) int {
	switch key {
	case SortPushups, SortPullups, SortSquats:
		e := core.Exercise(key)
		return func(a, b core.Entry) int {
			return cmp.Compare(a.Record.Count(e), b.Record.Count(e))
		}
	case SortDeadHang:
		return func(a, b core.Entry) int {
			return strings.Compare(a.Record.DeadHang, b.Record.DeadHang)
		}
	default:
		return func(a, b core.Entry) int {
			return strings.Compare(a.Date, b.Date)
		}
	}
}
