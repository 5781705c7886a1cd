// Package ledger is the balance-and-lifecycle engine: transaction
// application and rollback, envelope invariant enforcement, soft delete
// with merge, auto-allocation, retention pruning, and garbage collection
// of unreferenced envelopes.
//
// Every mutation is funneled through a Ledger, which serializes access to
// the shared state aggregate behind a single mutex. That single-writer
// discipline is what keeps rollback/reapply pairs atomic: no other
// operation can observe the intermediate rolled-back state inside
// UpdateTransaction.
package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"envelopes/internal/core"
)

// Ledger owns the state aggregate. It never performs I/O; persistence and
// notification are the caller's concern.
type Ledger struct {
	mu    sync.Mutex
	state *core.State

	// Injectable for tests.
	now   func() time.Time
	newID func(prefix string) string

	// Timestamps are clamped so creation order is non-decreasing even if
	// the wall clock steps backwards.
	lastTimestamp string
}

// New wraps an existing state aggregate. The caller should run
// EnsureCoreEnvelopes before serving operations.
func New(state *core.State) *Ledger {
	if state == nil {
		state = core.NewState()
	}
	return &Ledger{
		state: state,
		now:   time.Now,
		newID: randomID,
	}
}

func randomID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// nextTimestamp returns the canonical timestamp for a new transaction,
// never earlier than the previous one handed out.
func (l *Ledger) nextTimestamp() string {
	ts := core.FormatTimestamp(l.now())
	if ts < l.lastTimestamp {
		ts = l.lastTimestamp
	}
	l.lastTimestamp = ts
	return ts
}

// Envelopes returns a copy of all envelopes in registry order.
func (l *Ledger) Envelopes() []core.Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Envelope, len(l.state.Envelopes))
	for i, e := range l.state.Envelopes {
		out[i] = *e
	}
	return out
}

// Envelope returns a copy of a single envelope by id.
func (l *Ledger) Envelope(id string) (core.Envelope, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.state.FindEnvelope(id)
	if e == nil {
		return core.Envelope{}, core.ErrEnvelopeNotFound
	}
	return *e, nil
}

// EnvelopeName resolves an envelope id to a display name, with the
// same fallbacks the history view uses for absent or deleted ids.
func (l *Ledger) EnvelopeName(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.EnvelopeName(id)
}

// Transactions returns a copy of the transaction history in creation
// order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Transaction, len(l.state.Transactions))
	copy(out, l.state.Transactions)
	return out
}

// Settings returns the current settings.
func (l *Ledger) Settings() core.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Settings
}

// SetRetentionDays updates the transaction retention window.
func (l *Ledger) SetRetentionDays(days int) error {
	if days < 1 {
		return fmt.Errorf("invalid retention window %d: must be at least 1 day", days)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Settings.TransactionRetentionDays = days
	return nil
}

// BankBalanceCents returns the informational bank-account reference
// balance. It is not envelope-backed.
func (l *Ledger) BankBalanceCents() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.BankBalanceCents
}

// SetBankBalance updates the informational bank-account reference balance.
func (l *Ledger) SetBankBalance(cents int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.BankBalanceCents = cents
}

// Export serializes the current state, byte-identical to what the
// persistence layer stores.
func (l *Ledger) Export() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.EncodeState(l.state)
}

// Import replaces the state with an externally supplied blob. The blob is
// accepted only if it carries envelopes and transactions as arrays;
// otherwise no mutation is performed. Core envelope invariants are
// repaired after the swap.
func (l *Ledger) Import(data []byte) error {
	if err := core.ValidateImport(data); err != nil {
		return err
	}
	state, err := core.DecodeState(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	l.lastTimestamp = ""
	l.ensureCoreEnvelopesLocked()
	return nil
}
