package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name string
		tx   Transaction
		ok   bool
	}{
		{"valid transfer", Transaction{FromEnvelopeID: "a", ToEnvelopeID: "b", AmountCents: 100}, true},
		{"inflow", Transaction{ToEnvelopeID: "b", AmountCents: 100}, true},
		{"spend", Transaction{FromEnvelopeID: "a", AmountCents: 100}, true},
		{"zero amount", Transaction{FromEnvelopeID: "a", AmountCents: 0}, false},
		{"negative amount", Transaction{FromEnvelopeID: "a", AmountCents: -5}, false},
		{"no envelopes", Transaction{AmountCents: 100}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFormatTimestampIsFixedWidthUTC(t *testing.T) {
	instants := []time.Time{
		time.Date(2025, 1, 2, 3, 4, 5, 60_000_000, time.UTC),
		time.Date(2025, 11, 22, 23, 44, 55, 999_000_000, time.FixedZone("CET", 3600)),
	}
	var prev string
	for _, in := range instants {
		got := FormatTimestamp(in)
		if len(got) != len(TimestampFormat) {
			t.Fatalf("timestamp %q not fixed-width", got)
		}
		if got <= prev {
			t.Fatalf("lexicographic order broken: %q <= %q", got, prev)
		}
		prev = got
	}
	// Zone-normalized: the CET instant renders as UTC.
	if got := FormatTimestamp(instants[1]); got != "2025-11-22T22:44:55.999Z" {
		t.Fatalf("timestamp = %q, want UTC-normalized", got)
	}
}

func TestEnvelopeIsCore(t *testing.T) {
	if (&Envelope{}).IsCore() {
		t.Fatal("plain envelope reported core")
	}
	if !(&Envelope{IsIncome: true}).IsCore() || !(&Envelope{IsOverflow: true}).IsCore() {
		t.Fatal("core flags not detected")
	}
}

func TestEnvelopeNameFallbacks(t *testing.T) {
	s := NewState()
	s.Envelopes = append(s.Envelopes, &Envelope{ID: "a", Name: "Groceries"})

	if got := s.EnvelopeName("a"); got != "Groceries" {
		t.Fatalf("got %q", got)
	}
	if got := s.EnvelopeName(""); got != "Outside" {
		t.Fatalf("got %q", got)
	}
	if got := s.EnvelopeName("purged"); got != "(deleted envelope)" {
		t.Fatalf("got %q", got)
	}
}
