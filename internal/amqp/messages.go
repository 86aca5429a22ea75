package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// SyncOp tells the worker whether to write or remove the mirrored row.
type SyncOp string

const (
	OpUpsert SyncOp = "upsert"
	OpDelete SyncOp = "delete"
)

var ErrInvalidMessage = errors.New("invalid movement sync message")

// MovementSyncMessage carries only the identity of a changed movement; the
// worker reads the current record from the database.
type MovementSyncMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Op        SyncOp    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMovementSyncMessage(id, ownerID string, op SyncOp) *MovementSyncMessage {
	return &MovementSyncMessage{
		ID:        id,
		OwnerID:   ownerID,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MovementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MovementSyncMessageFromJSON decodes and checks a message body.
func MovementSyncMessageFromJSON(data []byte) (*MovementSyncMessage, error) {
	var msg MovementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || (msg.Op != OpUpsert && msg.Op != OpDelete) {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
