package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fitlog/internal/backup"
	"fitlog/internal/core"
)

// BackupMessage carries the full state of one day. Consumers overwrite the
// stored row, so redelivery and reordering of messages for different days
// are harmless.
type BackupMessage struct {
	backup.Payload
	Timestamp time.Time `json:"timestamp"`
}

func NewBackupMessage(p backup.Payload) *BackupMessage {
	return &BackupMessage{Payload: p, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupMessageFromJSON decodes a message and rejects invalid dates.
func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !core.ValidDateKey(msg.Date) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidDateKey, msg.Date)
	}
	return &msg, nil
}
