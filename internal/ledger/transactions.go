package ledger

import (
	"envelopes/internal/core"
)

// TransactionPatch carries the fields UpdateTransaction may override.
// Nil fields keep the stored values.
type TransactionPatch struct {
	FromEnvelopeID *string
	ToEnvelopeID   *string
	Note           *string
	Amount         *string // decimal, re-encoded through the money codec
}

// AddTransaction creates a recorded transaction: the balance effect is
// applied and the entry is appended to history. Empty from/to means money
// entering or leaving the system. A zero or invalid amount aborts with no
// state change.
func (l *Ledger) AddTransaction(from, to, amount, note string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := core.Transaction{
		ID:             l.newID("txn"),
		Timestamp:      l.nextTimestamp(),
		FromEnvelopeID: from,
		ToEnvelopeID:   to,
		AmountCents:    cents,
		Note:           note,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	l.applyBalanceDelta(tx, apply)
	l.state.Transactions = append(l.state.Transactions, tx)
	return tx, nil
}

// silentAdjust applies a transaction's balance effect without creating a
// history entry. This is the allocator's bulk-transfer primitive; because
// of it the transaction list is deliberately NOT a complete derivation
// source for balances. Balances are the authoritative record.
//
// Caller must hold l.mu.
func (l *Ledger) silentAdjust(tx core.Transaction) {
	l.applyBalanceDelta(tx, apply)
}

// UpdateTransaction edits a transaction as rollback-old + apply-new
// rather than an in-place field edit, preserving the id and the original
// timestamp. An empty patch leaves balances and the stored entry
// bit-for-bit identical.
func (l *Ledger) UpdateTransaction(id string, patch TransactionPatch) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.state.FindTransaction(id)
	if idx < 0 {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	old := l.state.Transactions[idx]

	next := old
	if patch.FromEnvelopeID != nil {
		next.FromEnvelopeID = *patch.FromEnvelopeID
	}
	if patch.ToEnvelopeID != nil {
		next.ToEnvelopeID = *patch.ToEnvelopeID
	}
	if patch.Note != nil {
		next.Note = *patch.Note
	}
	if patch.Amount != nil {
		cents, err := core.ParseDecimalToCents(*patch.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		next.AmountCents = cents
	}
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// The rollback/reapply pair is atomic under l.mu; no other operation
	// can observe the intermediate state.
	l.applyBalanceDelta(old, rollback)
	l.applyBalanceDelta(next, apply)
	l.state.Transactions[idx] = next
	return next, nil
}

// DeleteTransaction rolls back a transaction's balance effect and removes
// it from history. Any referenced envelope that is currently inactive is
// reactivated first: deleting the auto-generated merge transaction is the
// undo path for envelope soft deletion.
func (l *Ledger) DeleteTransaction(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.state.FindTransaction(id)
	if idx < 0 {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	tx := l.state.Transactions[idx]

	for _, ref := range []string{tx.FromEnvelopeID, tx.ToEnvelopeID} {
		if env := l.state.FindEnvelope(ref); env != nil && !env.IsActive {
			env.IsActive = true
		}
	}

	l.applyBalanceDelta(tx, rollback)
	l.state.Transactions = append(l.state.Transactions[:idx], l.state.Transactions[idx+1:]...)
	return tx, nil
}
