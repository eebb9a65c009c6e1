package core

import (
	"errors"
	"math"
	"time"
)

// DateKeyLayout is the canonical YYYY-MM-DD layout used as ledger key.
const DateKeyLayout = "2006-01-02"

// Exercise names, in display order.
const (
	Pushups Exercise = "pushups"
	Pullups Exercise = "pullups"
	Squats  Exercise = "squats"
)

// MaxCount is the largest count a record or goal holds; larger input and
// sums saturate here.
const MaxCount = math.MaxInt32

// Default goals applied when none are persisted.
const (
	DefaultPushupsGoal = 200
	DefaultPullupsGoal = 20
	DefaultSquatsGoal  = 200
)

type (
	Exercise string

	// DailyRecord holds the cumulative counts performed on one calendar date.
	DailyRecord struct {
		Pushups  int    `json:"pushups"`
		Pullups  int    `json:"pullups"`
		Squats   int    `json:"squats"`
		DeadHang string `json:"deadHang"` // mm:ss or empty
	}

	Goals struct {
		Pushups int `json:"pushups"`
		Pullups int `json:"pullups"`
		Squats  int `json:"squats"`
	}

	// Totals is the summable part of a DailyRecord.
	Totals struct {
		Pushups int `json:"pushups"`
		Pullups int `json:"pullups"`
		Squats  int `json:"squats"`
	}
)

var (
	ErrInvalidDateKey      = errors.New("invalid date key")
	ErrInvalidHoldDuration = errors.New("invalid hold duration")
	ErrNegativeCount       = errors.New("negative count")
)

// Exercises lists the counted exercises in display order.
var Exercises = []Exercise{Pushups, Pullups, Squats}

// DefaultGoals returns the goals used before the user sets any.
func DefaultGoals() Goals {
	return Goals{Pushups: DefaultPushupsGoal, Pullups: DefaultPullupsGoal, Squats: DefaultSquatsGoal}
}

// Count returns the value recorded for the given exercise.
func (r DailyRecord) Count(e Exercise) int {
	switch e {
	case Pushups:
		return r.Pushups
	case Pullups:
		return r.Pullups
	case Squats:
		return r.Squats
	}
	return 0
}

// IsZero reports whether the record carries no activity.
func (r DailyRecord) IsZero() bool {
	return r == DailyRecord{}
}

// Merge adds delta's counts to r. The hold duration is replaced only
// when delta carries one.
func (r DailyRecord) Merge(delta DailyRecord) DailyRecord {
	out := DailyRecord{
		Pushups:  addCount(r.Pushups, delta.Pushups),
		Pullups:  addCount(r.Pullups, delta.Pullups),
		Squats:   addCount(r.Squats, delta.Squats),
		DeadHang: r.DeadHang,
	}
	if delta.DeadHang != "" {
		out.DeadHang = delta.DeadHang
	}
	return out
}

// Clamp returns the record with counts bounded to [0, MaxCount].
func (r DailyRecord) Clamp() DailyRecord {
	r.Pushups = clampCount(r.Pushups)
	r.Pullups = clampCount(r.Pullups)
	r.Squats = clampCount(r.Squats)
	return r
}

// Totals drops the hold duration.
func (r DailyRecord) Totals() Totals {
	return Totals{Pushups: r.Pushups, Pullups: r.Pullups, Squats: r.Squats}
}

// Add returns the element-wise sum of t and r's counts, saturating at
// math.MaxInt.
func (t Totals) Add(r DailyRecord) Totals {
	return Totals{
		Pushups: addTotal(t.Pushups, r.Pushups),
		Pullups: addTotal(t.Pullups, r.Pullups),
		Squats:  addTotal(t.Squats, r.Squats),
	}
}

// Goal returns the target for the given exercise.
func (g Goals) Goal(e Exercise) int {
	switch e {
	case Pushups:
		return g.Pushups
	case Pullups:
		return g.Pullups
	case Squats:
		return g.Squats
	}
	return 0
}

// Clamp returns the goals with negative targets coerced to zero.
func (g Goals) Clamp() Goals {
	g.Pushups = clampCount(g.Pushups)
	g.Pullups = clampCount(g.Pullups)
	g.Squats = clampCount(g.Squats)
	return g
}

// KeyOf formats t as a date key in t's own location.
func KeyOf(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key into midnight of that day in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

// ValidDateKey reports whether key is a canonical, existing calendar date.
func ValidDateKey(key string) bool {
	t, err := time.Parse(DateKeyLayout, key)
	return err == nil && KeyOf(t) == key
}

func clampCount(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxCount:
		return MaxCount
	}
	return n
}

func addCount(a, b int) int {
	a, b = clampCount(a), clampCount(b)
	if b > MaxCount-a {
		return MaxCount
	}
	return a + b
}

func addTotal(total, n int) int {
	n = clampCount(n)
	if total > math.MaxInt-n {
		return math.MaxInt
	}
	return total + n
}

// Entry pairs a date key with its record.
type Entry struct {
	Date   string
	Record DailyRecord
}
