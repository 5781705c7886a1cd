package ledger

import (
	"bytes"
	"testing"

	"envelopes/internal/core"
)

func TestExportImportRoundTrip(t *testing.T) {
	l, _ := newTestLedger()
	env := mustCreateEnvelope(l, "Groceries", "50.00")
	mustAddTransaction(l, "", env.ID, "12.00", "seed")

	blob, err := l.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	other, _ := newTestLedger()
	if err := other.Import(blob); err != nil {
		t.Fatalf("import: %v", err)
	}
	blob2, err := other.Export()
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if !bytes.Equal(blob, blob2) {
		t.Fatalf("export after import differs:\n%s\n%s", blob, blob2)
	}
}

func TestImportRejectsWrongShapeWithoutMutation(t *testing.T) {
	l, _ := newTestLedger()
	mustCreateEnvelope(l, "Groceries", "")
	before, _ := l.Export()

	for _, blob := range []string{
		`{"transactions":[]}`,
		`{"envelopes":{},"transactions":[]}`,
		`not json at all`,
	} {
		if err := l.Import([]byte(blob)); err == nil {
			t.Fatalf("blob %q: expected rejection", blob)
		}
	}

	after, _ := l.Export()
	if !bytes.Equal(before, after) {
		t.Fatal("rejected import mutated state")
	}
}

func TestImportRepairsCoreInvariants(t *testing.T) {
	l, _ := newTestLedger()
	blob := []byte(`{"envelopes":[{"id":"x","name":"X","isIncome":true,"isActive":false,"targetCents":900}],"transactions":[]}`)
	if err := l.Import(blob); err != nil {
		t.Fatalf("import: %v", err)
	}

	income := l.state.IncomeEnvelope()
	if income == nil || income.ID != "x" {
		t.Fatalf("income = %+v, want imported envelope kept as income", income)
	}
	if !income.IsActive || income.TargetCents != 0 {
		t.Fatal("imported core envelope not repaired")
	}
	if l.state.OverflowEnvelope() == nil {
		t.Fatal("missing overflow envelope not created on import")
	}
	if l.state.FindEnvelope(core.OverflowEnvelopeID) == nil {
		t.Fatal("created overflow envelope lacks fixed id")
	}
}
