// Package core provides the fitness domain types and their input coercion.
//
// This file holds the lenient parsing rules: any count that is missing,
// unparseable or negative becomes zero instead of failing the caller.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// EntryForm is raw user input for one day, before coercion.
type EntryForm struct {
	Pushups  string `json:"pushups"`
	Pullups  string `json:"pullups"`
	Squats   string `json:"squats"`
	DeadHang string `json:"deadHang"`
}

// ParseCount converts raw input into a count in [0, MaxCount].
//
// Integers and decimals are accepted (decimals are truncated). Anything
// else, including the empty string, yields 0.
//
// Examples:
//
//	ParseCount("12")   -> 12
//	ParseCount(" 7 ")  -> 7
//	ParseCount("3.9")  -> 3
//	ParseCount("abc")  -> 0
//	ParseCount("-4")   -> 0
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return clampCount(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return floatCount(f)
}

// ParseEntry coerces a form into a DailyRecord.
func ParseEntry(f EntryForm) DailyRecord {
	return DailyRecord{
		Pushups:  ParseCount(f.Pushups),
		Pullups:  ParseCount(f.Pullups),
		Squats:   ParseCount(f.Squats),
		DeadHang: strings.TrimSpace(f.DeadHang),
	}
}

// ParseGoals coerces raw goal input; unparseable fields become 0.
func ParseGoals(pushups, pullups, squats string) Goals {
	return Goals{
		Pushups: ParseCount(pushups),
		Pullups: ParseCount(pullups),
		Squats:  ParseCount(squats),
	}
}

// UnmarshalJSON decodes a record leniently: counts may be numbers,
// numeric strings, null or absent.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = DailyRecord{
		Pushups:  coerceCount(fields["pushups"]),
		Pullups:  coerceCount(fields["pullups"]),
		Squats:   coerceCount(fields["squats"]),
		DeadHang: coerceString(fields["deadHang"]),
	}
	return nil
}

// UnmarshalJSON decodes goals with the same lenient rules as DailyRecord.
func (g *Goals) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*g = Goals{
		Pushups: coerceCount(fields["pushups"]),
		Pullups: coerceCount(fields["pullups"]),
		Squats:  coerceCount(fields["squats"]),
	}
	return nil
}

// UnmarshalJSON accepts both numbers and strings for every field.
func (f *EntryForm) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*f = EntryForm{
		Pushups:  rawText(fields["pushups"]),
		Pullups:  rawText(fields["pullups"]),
		Squats:   rawText(fields["squats"]),
		DeadHang: coerceString(fields["deadHang"]),
	}
	return nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func coerceCount(raw json.RawMessage) int {
	return ParseCount(rawText(raw))
}

// rawText returns numbers verbatim and strings unquoted; anything else is "".
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}
	return ""
}

func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func floatCount(f float64) int {
	if f <= 0 {
		return 0
	}
	if f >= MaxCount {
		return MaxCount
	}
	return int(f)
}
