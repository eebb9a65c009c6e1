package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"fitlog/internal/core"
)

// encodeEntries writes the ledger as a JSON object whose keys keep the
// given order. encoding/json would sort map keys.
func encodeEntries(entries []core.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Date)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Record)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeEntries reads a JSON object of date → record in document order.
// A repeated key keeps its first position and its last value.
func decodeEntries(data []byte) ([]core.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var entries []core.Entry
	pos := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}
		var rec core.DailyRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("entry %s: %w", key, err)
		}
		if i, seen := pos[key]; seen {
			entries[i].Record = rec
			continue
		}
		pos[key] = len(entries)
		entries = append(entries, core.Entry{Date: key, Record: rec})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}
