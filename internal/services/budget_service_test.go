package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"envelopes/internal/core"
	"envelopes/internal/ledger"
	"envelopes/internal/storage"
)

func newTestService(t *testing.T, dbPath string) *BudgetService {
	t.Helper()
	repo, err := storage.NewSnapshotRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := NewBudgetService(ledger.New(core.NewState()), repo, nil)
	if _, err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return svc
}

func TestInitCreatesCoreEnvelopes(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "budget.db"))

	envs := svc.Ledger().Envelopes()
	if len(envs) != 2 {
		t.Fatalf("fresh state has %d envelopes, want 2", len(envs))
	}
	if _, err := svc.Ledger().Envelope(core.IncomeEnvelopeID); err != nil {
		t.Errorf("income envelope missing: %v", err)
	}
	if _, err := svc.Ledger().Envelope(core.OverflowEnvelopeID); err != nil {
		t.Errorf("overflow envelope missing: %v", err)
	}
}

func TestMutationsPersistAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	svc := newTestService(t, dbPath)
	env, err := svc.CreateEnvelope(ctx, "Groceries", "250.00", false)
	if err != nil {
		t.Fatalf("create envelope: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, "", env.ID, "42.50", "seed"); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	// A second service over the same database must see the same state.
	restarted := newTestService(t, dbPath)
	got, err := restarted.Ledger().Envelope(env.ID)
	if err != nil {
		t.Fatalf("envelope lost across restart: %v", err)
	}
	if got.BalanceCents != 4250 {
		t.Errorf("restored balance = %d, want 4250", got.BalanceCents)
	}
	if n := len(restarted.Ledger().Transactions()); n != 1 {
		t.Errorf("restored %d transactions, want 1", n)
	}
}

func TestInitReportsRestoredSnapshotAndKeepsRetention(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	repo, err := storage.NewSnapshotRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewBudgetService(ledger.New(core.NewState()), repo, nil)
	restored, err := svc.Init(ctx)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if restored {
		t.Fatal("empty store must not report a restored snapshot")
	}
	// The retention window set through the settings path has to survive a
	// restart; the environment default seeds fresh state only.
	if err := svc.SetRetentionDays(ctx, 30); err != nil {
		t.Fatalf("set retention: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close repository: %v", err)
	}

	repo, err = storage.NewSnapshotRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc = NewBudgetService(ledger.New(core.NewState()), repo, nil)
	restored, err = svc.Init(ctx)
	if err != nil {
		t.Fatalf("init after restart: %v", err)
	}
	if !restored {
		t.Fatal("existing snapshot must be reported as restored")
	}
	if got := svc.Ledger().Settings().TransactionRetentionDays; got != 30 {
		t.Errorf("restored retention = %d, want 30", got)
	}
}

func TestDeleteEnvelope_CardMustBeZero(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "budget.db"))
	ctx := context.Background()

	card, err := svc.CreateEnvelope(ctx, "Visa", "", true)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, "", card.ID, "10.00", ""); err != nil {
		t.Fatalf("fund card: %v", err)
	}

	err = svc.DeleteEnvelope(ctx, card.ID, true)
	if !errors.Is(err, core.ErrCardBalanceNonzero) {
		t.Fatalf("delete nonzero card: err = %v, want ErrCardBalanceNonzero", err)
	}

	// Pay the card down to zero; deletion then succeeds even without the
	// merge confirmation, since there is nothing to merge.
	if _, err := svc.AddTransaction(ctx, card.ID, "", "10.00", "payoff"); err != nil {
		t.Fatalf("pay card: %v", err)
	}
	if err := svc.DeleteEnvelope(ctx, card.ID, false); err != nil {
		t.Fatalf("delete zeroed card: %v", err)
	}
}

func TestDeleteEnvelope_RequiresConfirmation(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "budget.db"))
	ctx := context.Background()

	env, _ := svc.CreateEnvelope(ctx, "Travel", "", false)
	if _, err := svc.AddTransaction(ctx, "", env.ID, "5.00", ""); err != nil {
		t.Fatalf("fund envelope: %v", err)
	}

	if err := svc.DeleteEnvelope(ctx, env.ID, false); !errors.Is(err, core.ErrConfirmationRequired) {
		t.Fatalf("unconfirmed delete: err = %v, want ErrConfirmationRequired", err)
	}
	if err := svc.DeleteEnvelope(ctx, env.ID, true); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
}

func TestStatusReportsClean(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "budget.db"))
	ctx := context.Background()

	if _, err := svc.CreateEnvelope(ctx, "Rent", "900", false); err != nil {
		t.Fatalf("create envelope: %v", err)
	}

	st := svc.Status(ctx)
	if st.Dirty {
		t.Error("Status should be clean after successful persist")
	}
	if st.LastSavedAt == nil {
		t.Error("Status should report a last save time")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	src := newTestService(t, filepath.Join(dir, "src.db"))
	if _, err := src.CreateEnvelope(ctx, "Groceries", "100", false); err != nil {
		t.Fatalf("create envelope: %v", err)
	}
	blob, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newTestService(t, filepath.Join(dir, "dst.db"))
	if err := dst.Import(ctx, blob); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(dst.Ledger().Envelopes()) != 3 {
		t.Errorf("imported %d envelopes, want 3", len(dst.Ledger().Envelopes()))
	}

	// A rejected blob must not disturb the state.
	if err := dst.Import(ctx, []byte(`{"envelopes":{}}`)); err == nil {
		t.Fatal("import of non-array envelopes should fail")
	}
	if len(dst.Ledger().Envelopes()) != 3 {
		t.Error("failed import must leave state untouched")
	}
}

func TestRunMaintenanceIsIdempotentWhenClean(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "budget.db"))

	pruned, cleaned := svc.RunMaintenance(context.Background())
	if pruned != 0 || cleaned != 0 {
		t.Errorf("maintenance on fresh state removed pruned=%d cleaned=%d, want 0,0", pruned, cleaned)
	}
}

func TestNewBudgetService_NilComponents(t *testing.T) {
	svc := NewBudgetService(ledger.New(core.NewState()), nil, nil)
	if _, err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init without storage: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close with nil components: %v", err)
	}
}
