package core

import (
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := NewState()
	s.Envelopes = append(s.Envelopes,
		&Envelope{ID: IncomeEnvelopeID, Name: IncomeEnvelopeName, IsIncome: true, IsActive: true, BalanceCents: -250},
		&Envelope{ID: "env_a", Name: "Groceries", TargetCents: 5000, BalanceCents: 1200, IsActive: true},
	)
	s.Transactions = append(s.Transactions, Transaction{
		ID: "txn_a", Timestamp: "2025-06-01T12:00:00.000Z",
		FromEnvelopeID: IncomeEnvelopeID, ToEnvelopeID: "env_a",
		AmountCents: 1200, Note: "weekly",
	})
	s.BankBalanceCents = 99999

	data, err := EncodeState(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Envelopes) != 2 || *got.Envelopes[0] != *s.Envelopes[0] || *got.Envelopes[1] != *s.Envelopes[1] {
		t.Fatalf("envelopes did not round-trip: %+v", got.Envelopes)
	}
	if len(got.Transactions) != 1 || got.Transactions[0] != s.Transactions[0] {
		t.Fatalf("transactions did not round-trip: %+v", got.Transactions)
	}
	if got.BankBalanceCents != 99999 {
		t.Fatalf("bank balance = %d", got.BankBalanceCents)
	}
}

func TestDecodeStateMalformed(t *testing.T) {
	for _, blob := range []string{"", "not json", `[]`, `{"envelopes": 5`} {
		if _, err := DecodeState([]byte(blob)); err == nil {
			t.Fatalf("blob %q: expected error", blob)
		}
	}
}

func TestDecodeStateFillsDefaults(t *testing.T) {
	got, err := DecodeState([]byte(`{}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Envelopes == nil || got.Transactions == nil {
		t.Fatal("nil collections after decode")
	}
	if got.Settings.TransactionRetentionDays != DefaultRetentionDays {
		t.Fatalf("retention = %d, want default", got.Settings.TransactionRetentionDays)
	}
}

func TestValidateImport(t *testing.T) {
	cases := []struct {
		name string
		blob string
		ok   bool
	}{
		{"valid", `{"envelopes":[],"transactions":[]}`, true},
		{"full", `{"envelopes":[{"id":"a"}],"transactions":[],"bankBalanceCents":5,"settings":{}}`, true},
		{"missing envelopes", `{"transactions":[]}`, false},
		{"missing transactions", `{"envelopes":[]}`, false},
		{"envelopes not array", `{"envelopes":{},"transactions":[]}`, false},
		{"transactions not array", `{"envelopes":[],"transactions":"x"}`, false},
		{"bad json", `{`, false},
		{"top-level array", `[]`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImport([]byte(tc.blob))
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
