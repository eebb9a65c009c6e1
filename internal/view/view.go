// Package view turns aggregates into display-ready models. Nothing here
// reads state; every builder is a function of its arguments.
package view

import (
	"fmt"
	"strconv"
	"time"

	"fitlog/internal/aggregate"
	"fitlog/internal/core"
)

// Bar colours by tier.
const (
	ColourGreen  = "green"
	ColourOrange = "orange"
	ColourRed    = "red"
)

// Calendar indicator symbols.
const (
	SymbolComplete = "✅"
	SymbolPartial  = "⚠️"
	SymbolNone     = "❌"
	SymbolHold     = "⏱"
)

// EmptyHold is shown in history rows without a hold duration.
const EmptyHold = "-"

var labels = map[core.Exercise]string{
	core.Pushups: "Pushups",
	core.Pullups: "Pullups",
	core.Squats:  "Squats",
}

// Label returns the display name of e.
func Label(e core.Exercise) string {
	if l, ok := labels[e]; ok {
		return l
	}
	return string(e)
}

type ProgressBar struct {
	Exercise core.Exercise  `json:"exercise"`
	Label    string         `json:"label"`
	Text     string         `json:"text"`
	Percent  float64        `json:"percent"`
	Width    string         `json:"width"`
	Tier     aggregate.Tier `json:"tier"`
	Colour   string         `json:"colour"`
}

func ProgressBars(report aggregate.ProgressReport) []ProgressBar {
	out := make([]ProgressBar, 0, len(report))
	for _, p := range report {
		out = append(out, ProgressBar{
			Exercise: p.Exercise,
			Label:    Label(p.Exercise),
			Text:     fmt.Sprintf("%d/%d", p.Value, p.Goal),
			Percent:  p.Percent,
			Width:    strconv.FormatFloat(p.Percent, 'f', -1, 64) + "%",
			Tier:     p.Tier,
			Colour:   Colour(p.Tier),
		})
	}
	return out
}

func Colour(t aggregate.Tier) string {
	switch t {
	case aggregate.TierComplete:
		return ColourGreen
	case aggregate.TierPartial:
		return ColourOrange
	default:
		return ColourRed
	}
}

type TodayView struct {
	Date   string           `json:"date"`
	Record core.DailyRecord `json:"record"`
	Bars   []ProgressBar    `json:"bars"`
}

func Today(date string, rec core.DailyRecord, goals core.Goals) TodayView {
	return TodayView{Date: date, Record: rec, Bars: ProgressBars(aggregate.Progress(rec, goals))}
}

type CalendarCell struct {
	Date       string   `json:"date"`
	Day        int      `json:"day"`
	InMonth    bool     `json:"inMonth"`
	Today      bool     `json:"today"`
	HasEntry   bool     `json:"hasEntry"`
	Indicators []string `json:"indicators,omitempty"`
	Hold       string   `json:"hold,omitempty"`
}

type CalendarView struct {
	Title    string           `json:"title"`
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Weekdays []string         `json:"weekdays"`
	Weeks    [][]CalendarCell `json:"weeks"`
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Calendar groups a month grid into Sunday-first weeks.
func Calendar(year int, month time.Month, cells []aggregate.Cell) CalendarView {
	v := CalendarView{
		Title:    fmt.Sprintf("%s %d", month, year),
		Year:     year,
		Month:    int(month),
		Weekdays: weekdays,
	}
	for i := 0; i < len(cells); i += 7 {
		end := min(i+7, len(cells))
		week := make([]CalendarCell, 0, 7)
		for _, c := range cells[i:end] {
			week = append(week, calendarCell(c))
		}
		v.Weeks = append(v.Weeks, week)
	}
	return v
}

func calendarCell(c aggregate.Cell) CalendarCell {
	out := CalendarCell{Date: c.Date, Day: c.Day, InMonth: c.InMonth, Today: c.Today}
	if c.Record == nil {
		return out
	}
	out.HasEntry = true
	for _, m := range c.Marks {
		out.Indicators = append(out.Indicators, symbol(m))
	}
	if c.Record.DeadHang != "" {
		out.Hold = SymbolHold + " " + c.Record.DeadHang
	}
	return out
}

func symbol(m aggregate.Mark) string {
	switch m {
	case aggregate.MarkComplete:
		return SymbolComplete
	case aggregate.MarkPartial:
		return SymbolPartial
	default:
		return SymbolNone
	}
}

type HistoryRow struct {
	Date     string `json:"date"`
	Pushups  int    `json:"pushups"`
	Pullups  int    `json:"pullups"`
	Squats   int    `json:"squats"`
	DeadHang string `json:"deadHang"`
}

type HistoryView struct {
	Sort  aggregate.SortKey `json:"sort"`
	Order string            `json:"order"`
	Rows  []HistoryRow      `json:"rows"`
}

// Order names for the history view.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

func History(entries []core.Entry, key aggregate.SortKey, ascending bool) HistoryView {
	v := HistoryView{Sort: key, Order: OrderDesc, Rows: make([]HistoryRow, 0, len(entries))}
	if ascending {
		v.Order = OrderAsc
	}
	for _, e := range entries {
		hold := e.Record.DeadHang
		if hold == "" {
			hold = EmptyHold
		}
		v.Rows = append(v.Rows, HistoryRow{
			Date:     e.Date,
			Pushups:  e.Record.Pushups,
			Pullups:  e.Record.Pullups,
			Squats:   e.Record.Squats,
			DeadHang: hold,
		})
	}
	return v
}

type SummaryLine struct {
	Window aggregate.Window `json:"window"`
	Label  string           `json:"label"`
	Totals core.Totals      `json:"totals"`
	Text   string           `json:"text"`
}

var windowLabels = []struct {
	w     aggregate.Window
	label string
}{
	{aggregate.WindowWeek, "Week"},
	{aggregate.WindowMonth, "Month"},
	{aggregate.WindowYear, "Year"},
	{aggregate.WindowAllTime, "All Time"},
}

// Summary renders one line per window, shortest window first.
func Summary(s aggregate.Summary) []SummaryLine {
	out := make([]SummaryLine, 0, len(windowLabels))
	for _, wl := range windowLabels {
		t := s.Get(wl.w)
		out = append(out, SummaryLine{
			Window: wl.w,
			Label:  wl.label,
			Totals: t,
			Text:   fmt.Sprintf("Pushups: %d, Pullups: %d, Squats: %d", t.Pushups, t.Pullups, t.Squats),
		})
	}
	return out
}
