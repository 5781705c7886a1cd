package ledger

import (
	"envelopes/internal/core"
)

type (
	// AllocationPlan describes what AutoAllocate will do: one transfer
	// from Income per eligible envelope, in registry order.
	AllocationPlan struct {
		TotalCents int64              `json:"totalCents"`
		Targets    []AllocationTarget `json:"targets"`
	}

	AllocationTarget struct {
		EnvelopeID  string `json:"envelopeId"`
		Name        string `json:"name"`
		AmountCents int64  `json:"amountCents"`
	}
)

// PlanAllocation computes the pending allocation without executing it.
// The caller uses the plan to ask for confirmation: the total leaves
// Income, which may go negative.
func (l *Ledger) PlanAllocation() (AllocationPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.planAllocationLocked()
}

func (l *Ledger) planAllocationLocked() (AllocationPlan, error) {
	if l.state.IncomeEnvelope() == nil {
		return AllocationPlan{}, core.ErrNoIncomeEnvelope
	}
	var plan AllocationPlan
	for _, e := range l.state.Envelopes {
		if !eligibleForAllocation(e) {
			continue
		}
		plan.Targets = append(plan.Targets, AllocationTarget{
			EnvelopeID:  e.ID,
			Name:        e.Name,
			AmountCents: e.TargetCents,
		})
		plan.TotalCents += e.TargetCents
	}
	if len(plan.Targets) == 0 {
		return AllocationPlan{}, core.ErrNoAllocationTargets
	}
	return plan, nil
}

// AutoAllocate executes the plan: for each eligible envelope, a silent
// Income->target transfer of its configured target amount. Balances
// change; no history entries are created. Targets are processed in
// registry order so the run is reproducible for a given state.
func (l *Ledger) AutoAllocate() (AllocationPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	plan, err := l.planAllocationLocked()
	if err != nil {
		return AllocationPlan{}, err
	}
	income := l.state.IncomeEnvelope()
	for _, target := range plan.Targets {
		l.silentAdjust(core.Transaction{
			ID:             l.newID("txn"),
			Timestamp:      l.nextTimestamp(),
			FromEnvelopeID: income.ID,
			ToEnvelopeID:   target.EnvelopeID,
			AmountCents:    target.AmountCents,
		})
	}
	return plan, nil
}
