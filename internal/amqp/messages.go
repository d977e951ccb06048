package amqp

import (
	"encoding/json"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// SnapshotSavedMessage announces a stored attendance snapshot. It carries
// the identifying fields only; consumers reload the month from storage.
type SnapshotSavedMessage struct {
	SnapshotID string    `json:"snapshot_id"`
	Month      string    `json:"month"`
	Class      string    `json:"class"`
	Schedule   string    `json:"schedule"`
	Teacher    string    `json:"teacher"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSnapshotSavedMessage builds the event for a stored snapshot.
func NewSnapshotSavedMessage(s core.Snapshot) *SnapshotSavedMessage {
	return &SnapshotSavedMessage{
		SnapshotID: s.ID,
		Month:      s.Month,
		Class:      s.Identifier(),
		Schedule:   s.Schedule,
		Teacher:    s.Teacher,
		Source:     s.Source,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSavedMessageFromJSON creates a message from JSON bytes
func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
