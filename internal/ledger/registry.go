package ledger

import (
	"envelopes/internal/core"
)

// EnvelopePatch carries the fields UpdateEnvelope may change. Nil fields
// are no-ops. Core envelopes accept only the flag fields, and IsActive
// can never be set false through this path.
type EnvelopePatch struct {
	Name         *string
	Target       *string // decimal amount, re-encoded through the money codec
	IsCreditCard *bool
	IsActive     *bool
}

// EnsureCoreEnvelopes is the invariant-restoration pass run at load time:
// exactly one Income and one Overflow envelope, both active with a zero
// target. Duplicate flags are demoted keeping the first envelope in
// collection order; missing core envelopes are created with fixed ids.
// It is idempotent and reports whether anything changed.
func (l *Ledger) EnsureCoreEnvelopes() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureCoreEnvelopesLocked()
}

func (l *Ledger) ensureCoreEnvelopesLocked() bool {
	changed := false
	changed = l.repairCoreFlag(
		func(e *core.Envelope) bool { return e.IsIncome },
		func(e *core.Envelope, v bool) { e.IsIncome = v },
		core.IncomeEnvelopeID, core.IncomeEnvelopeName,
	) || changed
	changed = l.repairCoreFlag(
		func(e *core.Envelope) bool { return e.IsOverflow },
		func(e *core.Envelope, v bool) { e.IsOverflow = v },
		core.OverflowEnvelopeID, core.OverflowEnvelopeName,
	) || changed
	return changed
}

// repairCoreFlag enforces the singleton invariant for one core flag.
// The demotion tie-break is deliberately "first found in collection
// order": deterministic, not an attempt to infer user intent.
func (l *Ledger) repairCoreFlag(get func(*core.Envelope) bool, set func(*core.Envelope, bool), fixedID, name string) bool {
	changed := false
	var keeper *core.Envelope
	for _, e := range l.state.Envelopes {
		if !get(e) {
			continue
		}
		if keeper == nil {
			keeper = e
			continue
		}
		set(e, false)
		changed = true
	}
	if keeper == nil {
		keeper = &core.Envelope{
			ID:       fixedID,
			Name:     name,
			IsActive: true,
		}
		set(keeper, true)
		l.state.Envelopes = append(l.state.Envelopes, keeper)
		changed = true
	}
	// Whichever envelope ends up as the core one is forced active with a
	// zero target, regardless of prior values.
	if keeper.TargetCents != 0 {
		keeper.TargetCents = 0
		changed = true
	}
	if !keeper.IsActive {
		keeper.IsActive = true
		changed = true
	}
	return changed
}

// CreateEnvelope adds a new user envelope with an optional allocation
// target (decimal input).
func (l *Ledger) CreateEnvelope(name, target string, isCreditCard bool) (core.Envelope, error) {
	targetCents, err := core.ParseTargetToCents(target)
	if err != nil {
		return core.Envelope{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	env := &core.Envelope{
		ID:           l.newID("env"),
		Name:         name,
		TargetCents:  targetCents,
		IsCreditCard: isCreditCard,
		IsActive:     true,
	}
	if err := env.Validate(); err != nil {
		return core.Envelope{}, err
	}
	l.state.Envelopes = append(l.state.Envelopes, env)
	return *env, nil
}

// UpdateEnvelope applies a patch to an envelope. An unresolvable id is a
// silent no-op. For core envelopes only flag fields change: the name and
// target of Income and Overflow are not mutable through this path, and
// IsActive=false is ignored.
func (l *Ledger) UpdateEnvelope(id string, patch EnvelopePatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	env := l.state.FindEnvelope(id)
	if env == nil {
		return nil
	}

	// Validate the whole patch before touching the envelope: a failure
	// must leave no partial mutation behind.
	var targetCents int64
	if !env.IsCore() {
		if patch.Name != nil {
			next := *env
			next.Name = *patch.Name
			if err := next.Validate(); err != nil {
				return err
			}
		}
		if patch.Target != nil {
			cents, err := core.ParseTargetToCents(*patch.Target)
			if err != nil {
				return err
			}
			targetCents = cents
		}
	}

	if patch.IsCreditCard != nil {
		env.IsCreditCard = *patch.IsCreditCard
	}
	if patch.IsActive != nil && *patch.IsActive {
		env.IsActive = true
	}
	if env.IsCore() {
		return nil
	}
	if patch.Name != nil {
		env.Name = *patch.Name
	}
	if patch.Target != nil {
		env.TargetCents = targetCents
	}
	return nil
}

// DeleteEnvelope soft-deletes a non-core envelope. A nonzero balance is
// first merged into Income via a visible transaction, which requires the
// caller to have confirmed; without confirmation the call fails with
// ErrConfirmationRequired and no state change. The returned transaction
// is the merge entry, nil when the balance was already zero.
//
// The merge direction follows the sign of the residual balance so the
// envelope always lands on exactly zero; deleting the merge transaction
// later restores both the balance and the envelope's active flag.
func (l *Ledger) DeleteEnvelope(id string, confirmed bool) (*core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	env := l.state.FindEnvelope(id)
	if env == nil {
		return nil, core.ErrEnvelopeNotFound
	}
	if env.IsCore() {
		return nil, core.ErrCoreEnvelope
	}
	income := l.state.IncomeEnvelope()
	if income == nil {
		return nil, core.ErrNoIncomeEnvelope
	}

	var merged *core.Transaction
	if env.BalanceCents != 0 {
		if !confirmed {
			return nil, core.ErrConfirmationRequired
		}
		amount := env.BalanceCents
		from, to := env.ID, income.ID
		if amount < 0 {
			amount = -amount
			from, to = to, from
		}
		tx := core.Transaction{
			ID:             l.newID("txn"),
			Timestamp:      l.nextTimestamp(),
			FromEnvelopeID: from,
			ToEnvelopeID:   to,
			AmountCents:    amount,
			Note:           "Merged remaining balance from " + env.Name,
		}
		l.applyBalanceDelta(tx, apply)
		l.state.Transactions = append(l.state.Transactions, tx)
		merged = &tx
	}

	env.IsActive = false
	return merged, nil
}

// Summary computes the aggregate balances. Pure: no side effects.
func (l *Ledger) Summary() core.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := core.Summary{
		BankBalanceCents: l.state.BankBalanceCents,
		TransactionCount: len(l.state.Transactions),
	}
	for _, e := range l.state.Envelopes {
		if !e.IsActive {
			continue
		}
		s.ActiveEnvelopes++
		s.TotalBalanceCents += e.BalanceCents
		if e.IsCreditCard {
			s.CardBalanceCents += e.BalanceCents
		} else {
			s.NonCardBalanceCents += e.BalanceCents
		}
		if eligibleForAllocation(e) {
			s.TargetAllocationCents += e.TargetCents
		}
	}
	return s
}

// eligibleForAllocation selects the envelopes the auto-allocator serves:
// active, non-core, non-card, with a positive target.
func eligibleForAllocation(e *core.Envelope) bool {
	return e.IsActive && !e.IsCore() && !e.IsCreditCard && e.TargetCents > 0
}
