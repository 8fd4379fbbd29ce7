package amqp

import (
	"encoding/json"
	"time"
)

// Kind identifies which record collection a change event refers to.
type Kind string

const (
	KindFarm        Kind = "farm"
	KindCrop        Kind = "crop"
	KindTask        Kind = "task"
	KindTransaction Kind = "transaction"
)

// Op identifies the mutation that produced a change event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// RecordChangeMessage is a lightweight change event. It carries only the
// record kind, ID and operation; the worker fetches the full record from
// the source store when it needs one.
type RecordChangeMessage struct {
	Kind      Kind      `json:"kind"`
	ID        int64     `json:"id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChangeMessage creates a change event for a record mutation.
func NewRecordChangeMessage(kind Kind, id int64, op Op) *RecordChangeMessage {
	return &RecordChangeMessage{
		Kind:      kind,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON creates a message from JSON bytes
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
