package ledger

import (
	"envelopes/internal/core"
)

// PruneOldTransactions drops every transaction whose timestamp is
// strictly earlier than now minus the retention window. Comparison is
// lexicographic on the fixed-format timestamp strings, which is valid
// only because the format is zone-normalized and fixed-width.
//
// Pruning never touches the balance engine: removed transactions' effects
// stay permanently baked into envelope balances. A retention window of
// zero or less prunes nothing.
func (l *Ledger) PruneOldTransactions(retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := core.FormatTimestamp(l.now().AddDate(0, 0, -retentionDays))
	kept := l.state.Transactions[:0]
	removed := 0
	for _, tx := range l.state.Transactions {
		if tx.Timestamp < cutoff {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	l.state.Transactions = kept
	return removed
}

// CleanupUnusedEnvelopes permanently removes envelopes that are inactive,
// hold exactly zero balance, and are unreferenced by any surviving
// transaction. Core and active envelopes are never touched. Run after
// pruning, since pruning can remove the last reference keeping an
// envelope alive.
func (l *Ledger) CleanupUnusedEnvelopes() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	referenced := make(map[string]struct{}, len(l.state.Transactions)*2)
	for _, tx := range l.state.Transactions {
		if tx.FromEnvelopeID != "" {
			referenced[tx.FromEnvelopeID] = struct{}{}
		}
		if tx.ToEnvelopeID != "" {
			referenced[tx.ToEnvelopeID] = struct{}{}
		}
	}

	kept := l.state.Envelopes[:0]
	removed := 0
	for _, e := range l.state.Envelopes {
		if l.keepEnvelope(e, referenced) {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	l.state.Envelopes = kept
	return removed
}

func (l *Ledger) keepEnvelope(e *core.Envelope, referenced map[string]struct{}) bool {
	if e.IsCore() || e.IsActive || e.BalanceCents != 0 {
		return true
	}
	_, ok := referenced[e.ID]
	return ok
}
