package view

import (
	"testing"
	"time"

	"fitlog/internal/aggregate"
	"fitlog/internal/core"
	"fitlog/internal/ledger"
)

func TestProgressBars(t *testing.T) {
	bars := ProgressBars(aggregate.Progress(
		core.DailyRecord{Pushups: 100, Pullups: 25, Squats: 10},
		core.Goals{Pushups: 200, Pullups: 20, Squats: 200},
	))
	want := []struct {
		label, text, width, colour string
	}{
		{"Pushups", "100/200", "50%", ColourOrange},
		{"Pullups", "25/20", "100%", ColourGreen},
		{"Squats", "10/200", "5%", ColourRed},
	}
	if len(bars) != len(want) {
		t.Fatalf("got %d bars", len(bars))
	}
	for i, w := range want {
		b := bars[i]
		if b.Label != w.label || b.Text != w.text || b.Width != w.width || b.Colour != w.colour {
			t.Errorf("bar %d = %+v, want %+v", i, b, w)
		}
	}
}

func TestTodayView(t *testing.T) {
	v := Today("2024-01-01", core.DailyRecord{Pushups: 50}, core.DefaultGoals())
	if v.Date != "2024-01-01" || len(v.Bars) != 3 || v.Bars[0].Text != "50/200" || v.Bars[0].Colour != ColourRed {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestCalendar(t *testing.T) {
	snap := ledger.Snapshot{
		{Date: "2024-03-05", Record: core.DailyRecord{Pushups: 200, Pullups: 3, DeadHang: "1:30"}},
		{Date: "2024-03-06", Record: core.DailyRecord{}},
	}
	cells := aggregate.MonthGrid(2024, time.March, snap, core.DefaultGoals(), "2024-03-06")
	v := Calendar(2024, time.March, cells)

	if v.Title != "March 2024" || v.Month != 3 {
		t.Fatalf("title %q month %d", v.Title, v.Month)
	}
	if len(v.Weeks) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(v.Weeks))
	}
	for _, w := range v.Weeks {
		if len(w) != 7 {
			t.Fatalf("week of %d days", len(w))
		}
	}

	find := func(date string) CalendarCell {
		for _, w := range v.Weeks {
			for _, c := range w {
				if c.Date == date {
					return c
				}
			}
		}
		t.Fatalf("no cell for %s", date)
		return CalendarCell{}
	}

	c := find("2024-03-05")
	if !c.HasEntry || c.Hold != "⏱ 1:30" {
		t.Fatalf("cell %+v", c)
	}
	if got := c.Indicators; len(got) != 3 || got[0] != SymbolComplete || got[1] != SymbolPartial || got[2] != SymbolNone {
		t.Fatalf("indicators %v", got)
	}

	empty := find("2024-03-06")
	if !empty.Today || !empty.HasEntry || empty.Hold != "" {
		t.Fatalf("today cell %+v", empty)
	}
	if none := find("2024-03-07"); none.HasEntry || len(none.Indicators) != 0 {
		t.Fatalf("cell without entry %+v", none)
	}
}

func TestHistory(t *testing.T) {
	entries := []core.Entry{
		{Date: "2024-01-02", Record: core.DailyRecord{Pushups: 5}},
		{Date: "2024-01-01", Record: core.DailyRecord{Squats: 1, DeadHang: "0:20"}},
	}
	v := History(entries, aggregate.SortDate, false)
	if v.Order != OrderDesc || v.Sort != aggregate.SortDate {
		t.Fatalf("sort state %+v", v)
	}
	if v.Rows[0].DeadHang != EmptyHold || v.Rows[1].DeadHang != "0:20" {
		t.Fatalf("rows %+v", v.Rows)
	}
	if v := History(nil, aggregate.SortSquats, true); v.Order != OrderAsc || v.Rows == nil {
		t.Fatalf("empty history %+v", v)
	}
}

func TestSummary(t *testing.T) {
	lines := Summary(aggregate.Summary{
		Week:    core.Totals{Pushups: 1},
		Month:   core.Totals{Pushups: 2},
		Year:    core.Totals{Pushups: 3},
		AllTime: core.Totals{Pushups: 4, Pullups: 5, Squats: 6},
	})
	labels := []string{"Week", "Month", "Year", "All Time"}
	for i, l := range lines {
		if l.Label != labels[i] || l.Totals.Pushups != i+1 {
			t.Fatalf("line %d = %+v", i, l)
		}
	}
	if lines[3].Text != "Pushups: 4, Pullups: 5, Squats: 6" {
		t.Fatalf("text %q", lines[3].Text)
	}
}
