package ledger

import (
	"testing"

	"envelopes/internal/core"
)

func TestApplyThenRollbackRestoresBalances(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"between envelopes", core.IncomeEnvelopeID, "env_x"},
		{"into the system", "", core.IncomeEnvelopeID},
		{"out of the system", "env_x", ""},
		{"unresolvable from", "ghost", core.IncomeEnvelopeID},
		{"unresolvable to", core.IncomeEnvelopeID, "ghost"},
		{"both unresolvable", "ghost_a", "ghost_b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, _ := newTestLedger()
			l.state.Envelopes = append(l.state.Envelopes, &core.Envelope{
				ID: "env_x", Name: "X", BalanceCents: 317, IsActive: true,
			})
			l.state.IncomeEnvelope().BalanceCents = -42

			before := map[string]int64{}
			for _, e := range l.state.Envelopes {
				before[e.ID] = e.BalanceCents
			}

			tx := core.Transaction{
				ID:             "txn_test",
				FromEnvelopeID: tc.from,
				ToEnvelopeID:   tc.to,
				AmountCents:    1234,
			}
			l.applyBalanceDelta(tx, apply)
			l.applyBalanceDelta(tx, rollback)

			for _, e := range l.state.Envelopes {
				if e.BalanceCents != before[e.ID] {
					t.Fatalf("envelope %s: balance %d, want %d after apply+rollback", e.ID, e.BalanceCents, before[e.ID])
				}
			}
		})
	}
}

func TestApplyBalanceDeltaMovesBothSides(t *testing.T) {
	l, _ := newTestLedger()
	env := mustCreateEnvelope(l, "Groceries", "")

	tx := core.Transaction{ID: "txn_t", FromEnvelopeID: core.IncomeEnvelopeID, ToEnvelopeID: env.ID, AmountCents: 500}
	l.applyBalanceDelta(tx, apply)

	if got := balanceOf(l, core.IncomeEnvelopeID); got != -500 {
		t.Fatalf("income balance = %d, want -500", got)
	}
	if got := balanceOf(l, env.ID); got != 500 {
		t.Fatalf("target balance = %d, want 500", got)
	}
}
