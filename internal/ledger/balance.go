package ledger

import "envelopes/internal/core"

// Balance application directions. Apply adds a transaction's effect to
// envelope balances; rollback removes it.
const (
	apply    int64 = 1
	rollback int64 = -1
)

// applyBalanceDelta applies or rolls back a transaction's effect on
// envelope balances. Unresolvable envelope ids are silently skipped: the
// envelope no longer exists and its share of the effect is simply lost.
// It never fails.
//
// Applying with apply then rollback for the same transaction restores
// every touched balance to its exact prior integer value. Everything in
// this package builds on that property.
//
// Caller must hold l.mu.
func (l *Ledger) applyBalanceDelta(tx core.Transaction, direction int64) {
	if from := l.state.FindEnvelope(tx.FromEnvelopeID); from != nil {
		from.BalanceCents -= direction * tx.AmountCents
	}
	if to := l.state.FindEnvelope(tx.ToEnvelopeID); to != nil {
		to.BalanceCents += direction * tx.AmountCents
	}
}
