package amqp

import (
	"testing"
	"time"
)

func TestNewStateChangedMessage(t *testing.T) {
	msg := NewStateChangedMessage(EventTransactionAdded, "txn_1")

	if msg.Kind != EventTransactionAdded {
		t.Errorf("Kind = %v, want %v", msg.Kind, EventTransactionAdded)
	}
	if msg.EntityID != "txn_1" {
		t.Errorf("EntityID = %v, want txn_1", msg.EntityID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestStateChangedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &StateChangedMessage{
		Kind:      EventEnvelopeDeleted,
		EntityID:  "env_9",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := StateChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("StateChangedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Kind != msg.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsedMsg.Kind, msg.Kind)
	}
	if parsedMsg.EntityID != msg.EntityID {
		t.Errorf("Parsed EntityID = %v, want %v", parsedMsg.EntityID, msg.EntityID)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestTransactionRecordedMessage_JSON(t *testing.T) {
	msg := &TransactionRecordedMessage{
		TransactionID: "txn_42",
		Timestamp:     "2025-06-01T12:00:00.000Z",
		FromName:      "Income",
		ToName:        "Groceries",
		AmountCents:   5000,
		Note:          "weekly shop",
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := TransactionRecordedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionRecordedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.TransactionID != msg.TransactionID {
		t.Errorf("Parsed TransactionID = %v, want %v", parsedMsg.TransactionID, msg.TransactionID)
	}
	if parsedMsg.AmountCents != msg.AmountCents {
		t.Errorf("Parsed AmountCents = %v, want %v", parsedMsg.AmountCents, msg.AmountCents)
	}
	if parsedMsg.FromName != "Income" || parsedMsg.ToName != "Groceries" {
		t.Errorf("Parsed names = %v -> %v", parsedMsg.FromName, parsedMsg.ToName)
	}
}

func TestTransactionRecordedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"amountCents": "not_a_number"}`)

	_, err := TransactionRecordedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("TransactionRecordedMessageFromJSON() should fail with invalid JSON")
	}
}
