package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fitlog/internal/aggregate"
	"fitlog/internal/core"
	"fitlog/internal/log"
	"fitlog/internal/view"
)

type dayResponse struct {
	Date   string             `json:"date"`
	Exists bool               `json:"exists"`
	Record core.DailyRecord   `json:"record"`
	Bars   []view.ProgressBar `json:"bars"`
}

type summaryResponse struct {
	Totals aggregate.Summary  `json:"totals"`
	Lines  []view.SummaryLine `json:"lines"`
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady runs every readiness check with a shared deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, r, httpStatus, map[string]any{"status": status, "checks": checks})
}

func (s *Server) handleGetToday(w http.ResponseWriter, r *http.Request) {
	date, rec := s.tracker.Today()
	writeJSON(w, r, http.StatusOK, view.Today(date, rec, s.tracker.Goals()))
}

// handleLogToday adds a session to today's counts.
func (s *Server) handleLogToday(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseEntry(w, r)
	if !ok {
		return
	}
	date, rec, err := s.tracker.LogToday(r.Context(), core.ParseEntry(form))
	if err != nil {
		s.logError(r, "Log session failed", err, log.OpLog)
		writeTrackerError(w, r, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogDaySaved(r.Context(), log.OpLog, date, rec)
	writeJSON(w, r, http.StatusOK, view.Today(date, rec, s.tracker.Goals()))
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	rec, exists := s.tracker.Day(date)
	writeJSON(w, r, http.StatusOK, s.day(date, rec, exists))
}

// handleEditDay overwrites a day with absolute values.
func (s *Server) handleEditDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	form, ok := s.parseEntry(w, r)
	if !ok {
		return
	}
	rec := core.ParseEntry(form)
	if err := s.tracker.EditDay(r.Context(), date, rec); err != nil {
		s.logError(r, "Edit day failed", err, log.OpEdit)
		writeTrackerError(w, r, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogDaySaved(r.Context(), log.OpEdit, date, rec)
	writeJSON(w, r, http.StatusOK, s.day(date, rec, true))
}

// handleDeleteDay requires ?confirm=true so a stray request cannot drop a day.
func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(r.URL.Query().Get("confirm"), "true") {
		writeError(w, r, http.StatusConflict, "deleting a day requires confirm=true")
		return
	}
	if err := s.tracker.DeleteDay(r.Context(), date); err != nil {
		s.logError(r, "Delete day failed", err, log.OpDelete)
		writeTrackerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum := s.tracker.Summary()
	writeJSON(w, r, http.StatusOK, summaryResponse{Totals: sum, Lines: view.Summary(sum)})
}

// handleHistory lists every day; sort falls back to date, order defaults to asc.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ascending, err := parseOrder(q.Get("order"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	key := aggregate.ParseSortKey(q.Get("sort"))
	writeJSON(w, r, http.StatusOK, view.History(s.tracker.History(key, ascending), key, ascending))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r.URL.Query(), s.tracker.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, view.Calendar(year, month, s.tracker.Calendar(year, month)))
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.tracker.Goals())
}

// handleSetGoals persists goals immediately.
func (s *Server) handleSetGoals(w http.ResponseWriter, r *http.Request) {
	g, ok := s.parseGoals(w, r)
	if !ok {
		return
	}
	if err := s.tracker.SetGoals(r.Context(), g); err != nil {
		s.logError(r, "Save goals failed", err, log.OpGoals)
		writeTrackerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.tracker.Goals())
}

// handleDraftGoals schedules a debounced save and echoes the draft.
func (s *Server) handleDraftGoals(w http.ResponseWriter, r *http.Request) {
	g, ok := s.parseGoals(w, r)
	if !ok {
		return
	}
	s.tracker.DraftGoals(g)
	writeJSON(w, r, http.StatusAccepted, g.Clamp())
}

func (s *Server) day(date string, rec core.DailyRecord, exists bool) dayResponse {
	return dayResponse{
		Date:   date,
		Exists: exists,
		Record: rec,
		Bars:   view.ProgressBars(aggregate.Progress(rec, s.tracker.Goals())),
	}
}

func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.PathValue("date")
	if !core.ValidDateKey(date) {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r, s.maxBody)
	if err := p.Parse(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return p, true
}

func (s *Server) parseEntry(w http.ResponseWriter, r *http.Request) (core.EntryForm, bool) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return core.EntryForm{}, false
	}
	form := p.EntryForm()
	if fe := core.ValidateEntryForm(form); fe != nil {
		writeFieldErrors(w, r, fe)
		return core.EntryForm{}, false
	}
	return form, true
}

func (s *Server) parseGoals(w http.ResponseWriter, r *http.Request) (core.Goals, bool) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return core.Goals{}, false
	}
	form := p.GoalsForm()
	if fe := core.ValidateEntryForm(form); fe != nil {
		writeFieldErrors(w, r, fe)
		return core.Goals{}, false
	}
	return core.ParseGoals(form.Pushups, form.Pullups, form.Squats), true
}

func (s *Server) logError(r *http.Request, msg string, err error, op string) {
	if statusFor(err) != http.StatusInternalServerError {
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentHTTP, op, nil)
}
