package ledger

import (
	"errors"
	"testing"

	"envelopes/internal/core"
)

func TestAutoAllocateDistributesTargets(t *testing.T) {
	l, _ := newTestLedger()
	groceries := mustCreateEnvelope(l, "Groceries", "50.00")
	mustAddTransaction(l, "", core.IncomeEnvelopeID, "100.00", "salary")
	historyBefore := len(l.Transactions())

	plan, err := l.AutoAllocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if plan.TotalCents != 5000 {
		t.Fatalf("plan total = %d, want 5000", plan.TotalCents)
	}
	if balanceOf(l, core.IncomeEnvelopeID) != 5000 {
		t.Fatalf("income balance = %d, want 5000", balanceOf(l, core.IncomeEnvelopeID))
	}
	if balanceOf(l, groceries.ID) != 5000 {
		t.Fatalf("groceries balance = %d, want 5000", balanceOf(l, groceries.ID))
	}
	// Silent adjustment: balances change, no history entries appear.
	if got := len(l.Transactions()); got != historyBefore {
		t.Fatalf("history length = %d, want %d", got, historyBefore)
	}
}

func TestAutoAllocateMayDriveIncomeNegative(t *testing.T) {
	l, _ := newTestLedger()
	mustCreateEnvelope(l, "Rent", "800.00")

	if _, err := l.AutoAllocate(); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := balanceOf(l, core.IncomeEnvelopeID); got != -80000 {
		t.Fatalf("income balance = %d, want -80000", got)
	}
}

func TestAutoAllocateSkipsIneligibleEnvelopes(t *testing.T) {
	l, _ := newTestLedger()
	target := mustCreateEnvelope(l, "Groceries", "50.00")
	card, _ := l.CreateEnvelope("Visa", "40.00", true)
	noTarget := mustCreateEnvelope(l, "Misc", "")
	inactive := mustCreateEnvelope(l, "Old", "30.00")
	if _, err := l.DeleteEnvelope(inactive.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}

	plan, err := l.AutoAllocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(plan.Targets) != 1 || plan.Targets[0].EnvelopeID != target.ID {
		t.Fatalf("plan targets = %+v, want only %s", plan.Targets, target.ID)
	}
	if balanceOf(l, card.ID) != 0 || balanceOf(l, noTarget.ID) != 0 || balanceOf(l, inactive.ID) != 0 {
		t.Fatal("ineligible envelope received an allocation")
	}
}

func TestAutoAllocateProcessesTargetsInRegistryOrder(t *testing.T) {
	l, _ := newTestLedger()
	a := mustCreateEnvelope(l, "A", "1.00")
	b := mustCreateEnvelope(l, "B", "2.00")
	c := mustCreateEnvelope(l, "C", "3.00")

	plan, err := l.PlanAllocation()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := []string{a.ID, b.ID, c.ID}
	for i, target := range plan.Targets {
		if target.EnvelopeID != want[i] {
			t.Fatalf("target %d = %s, want %s", i, target.EnvelopeID, want[i])
		}
	}
}

func TestAutoAllocateFailsWithoutTargets(t *testing.T) {
	l, _ := newTestLedger()
	if _, err := l.AutoAllocate(); !errors.Is(err, core.ErrNoAllocationTargets) {
		t.Fatalf("err = %v, want ErrNoAllocationTargets", err)
	}
}

func TestAutoAllocateFailsWithoutIncome(t *testing.T) {
	l := New(core.NewState())
	if _, err := l.AutoAllocate(); !errors.Is(err, core.ErrNoIncomeEnvelope) {
		t.Fatalf("err = %v, want ErrNoIncomeEnvelope", err)
	}
}

func TestPlanAllocationIsPure(t *testing.T) {
	l, _ := newTestLedger()
	env := mustCreateEnvelope(l, "Groceries", "50.00")

	if _, err := l.PlanAllocation(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if balanceOf(l, env.ID) != 0 || balanceOf(l, core.IncomeEnvelopeID) != 0 {
		t.Fatal("planning mutated balances")
	}
}
