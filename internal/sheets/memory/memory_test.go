package memory

import (
	"context"
	"testing"

	ports "envelopes/internal/sheets"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()

	ref, err := s.Append(context.Background(), ports.HistoryEntry{
		TransactionID: "txn_1",
		Timestamp:     "2025-06-01T12:00:00.000Z",
		FromName:      "Income",
		ToName:        "Groceries",
		AmountCents:   5000,
		Note:          "weekly shop",
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ref, err = s.Append(context.Background(), ports.HistoryEntry{TransactionID: "txn_2"})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected second append: ref=%q err=%v", ref, err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() returned %d rows, want 2", len(entries))
	}
	if entries[0].ToName != "Groceries" || entries[0].AmountCents != 5000 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}

	// Entries must be a copy, not a view.
	entries[0].TransactionID = "mutated"
	if s.Entries()[0].TransactionID != "txn_1" {
		t.Error("Entries() should return a copy")
	}
}
