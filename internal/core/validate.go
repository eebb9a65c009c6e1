package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MsgInvalidCount = "Please enter a valid non-negative number"
	MsgInvalidHold  = "Enter time in mm:ss format"
)

var holdDurationRe = regexp.MustCompile(`^\d+:\d{2}$`)

// FieldErrors maps a form field name to a user-facing message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range []string{"pushups", "pullups", "squats", "deadHang"} {
		if msg, ok := fe[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidHoldDuration reports whether s is empty or in mm:ss form.
func ValidHoldDuration(s string) bool {
	return s == "" || holdDurationRe.MatchString(s)
}

// ValidateEntryForm checks raw day input before it reaches the ledger.
// It returns nil when the form is acceptable.
func ValidateEntryForm(f EntryForm) FieldErrors {
	errs := FieldErrors{}
	counts := map[string]string{
		"pushups": f.Pushups,
		"pullups": f.Pullups,
		"squats":  f.Squats,
	}
	for field, v := range counts {
		if !validCountInput(v) {
			errs[field] = MsgInvalidCount
		}
	}
	if !ValidHoldDuration(strings.TrimSpace(f.DeadHang)) {
		errs["deadHang"] = MsgInvalidHold
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRecord checks an already typed record.
func ValidateRecord(r DailyRecord) error {
	if r.Pushups < 0 || r.Pullups < 0 || r.Squats < 0 {
		return ErrNegativeCount
	}
	if !ValidHoldDuration(r.DeadHang) {
		return ErrInvalidHoldDuration
	}
	return nil
}

func validCountInput(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return false
	}
	return f >= 0
}
