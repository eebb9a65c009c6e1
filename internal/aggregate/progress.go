// Package aggregate derives read-only views from a ledger snapshot:
// progress against goals, window totals, sorted history and the month grid.
// Every function here is pure.
package aggregate

import "fitlog/internal/core"

type Tier string

const (
	TierComplete Tier = "complete"
	TierPartial  Tier = "partial"
	TierLow      Tier = "low"
)

type ExerciseProgress struct {
	Exercise core.Exercise `json:"exercise"`
	Value    int           `json:"value"`
	Goal     int           `json:"goal"`
	Percent  float64       `json:"percent"`
	Tier     Tier          `json:"tier"`
}

// ProgressReport holds one entry per exercise in core.Exercises order.
type ProgressReport []ExerciseProgress

// Percent returns min(value/goal, 1) as a percentage. A goal of zero or
// less yields 0.
func Percent(value, goal int) float64 {
	if goal <= 0 || value <= 0 {
		return 0
	}
	if value >= goal {
		return 100
	}
	return float64(value) * 100 / float64(goal)
}

// TierOf classifies a percentage.
func TierOf(pct float64) Tier {
	switch {
	case pct >= 100:
		return TierComplete
	case pct >= 50:
		return TierPartial
	default:
		return TierLow
	}
}

// Progress measures rec against goals for every exercise.
func Progress(rec core.DailyRecord, goals core.Goals) ProgressReport {
	out := make(ProgressReport, 0, len(core.Exercises))
	for _, e := range core.Exercises {
		v, g := rec.Count(e), goals.Goal(e)
		pct := Percent(v, g)
		out = append(out, ExerciseProgress{
			Exercise: e,
			Value:    v,
			Goal:     g,
			Percent:  pct,
			Tier:     TierOf(pct),
		})
	}
	return out
}

// For returns the entry for e.
func (p ProgressReport) For(e core.Exercise) (ExerciseProgress, bool) {
	for _, ep := range p {
		if ep.Exercise == e {
			return ep, true
		}
	}
	return ExerciseProgress{}, false
}
