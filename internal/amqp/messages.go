package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried by StateChangedMessage.
const (
	EventTransactionAdded   = "transaction.added"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventEnvelopeCreated    = "envelope.created"
	EventEnvelopeUpdated    = "envelope.updated"
	EventEnvelopeDeleted    = "envelope.deleted"
	EventAllocationRun      = "allocation.run"
	EventMaintenanceRun     = "maintenance.run"
	EventStateImported      = "state.imported"
	EventSettingsChanged    = "settings.changed"
)

// StateChangedMessage tells consumers (the worker, any presentation
// layer) that the ledger state changed and should be re-read. It carries
// only the event kind and the entity id; consumers fetch current state
// themselves.
type StateChangedMessage struct {
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateChangedMessage creates a state-changed notification.
func NewStateChangedMessage(kind, entityID string) *StateChangedMessage {
	return &StateChangedMessage{
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON creates a message from JSON bytes
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionRecordedMessage carries a recorded history entry for the
// worker's Google Sheets mirror. Silent allocator adjustments never
// produce one.
type TransactionRecordedMessage struct {
	TransactionID string    `json:"transactionId"`
	Timestamp     string    `json:"timestamp"`
	FromName      string    `json:"fromName"`
	ToName        string    `json:"toName"`
	AmountCents   int64     `json:"amountCents"`
	Note          string    `json:"note"`
	PublishedAt   time.Time `json:"publishedAt"`
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
