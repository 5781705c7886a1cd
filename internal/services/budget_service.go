// Package services orchestrates ledger operations across the snapshot
// store and AMQP. Every mutation goes through the same path: mutate the
// in-memory ledger, persist the snapshot, notify consumers. Persistence
// failure never rolls the mutation back; it flips a dirty flag that
// Status() exposes so callers can warn about unsaved changes.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"envelopes/internal/amqp"
	"envelopes/internal/core"
	"envelopes/internal/ledger"
	"envelopes/internal/storage"
)

// BudgetService orchestrates budget operations across SQLite and AMQP.
type BudgetService struct {
	ledger     *ledger.Ledger
	storage    *storage.SnapshotRepository
	amqpClient *amqp.Client
	dirty      atomic.Bool
}

// Status reports persistence health for the presentation layer.
type Status struct {
	Dirty       bool       `json:"dirty"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
}

func NewBudgetService(l *ledger.Ledger, store *storage.SnapshotRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		ledger:     l,
		storage:    store,
		amqpClient: amqpClient,
	}
}

// Init loads the persisted snapshot into the ledger. An absent or
// malformed blob falls back to a fresh default state; either way the
// core envelopes are repaired and the result persisted. The returned
// flag reports whether a usable snapshot was restored, so callers can
// seed environment defaults on fresh state only.
func (s *BudgetService) Init(ctx context.Context) (restored bool, err error) {
	if s.storage != nil {
		blob, ok, err := s.storage.Load(ctx, core.SnapshotKey)
		if err != nil {
			return false, fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			if err := s.ledger.Import(blob); err != nil {
				slog.WarnContext(ctx, "Stored snapshot unusable, starting fresh", "error", err)
			} else {
				restored = true
			}
		}
	}

	repaired := s.ledger.EnsureCoreEnvelopes()
	if repaired {
		slog.InfoContext(ctx, "Repaired core envelope invariants on load")
	}
	s.persist(ctx, amqp.EventStateImported, "")
	return restored, nil
}

// Reload re-reads the persisted snapshot, replacing the in-memory
// state. Used by consumers reacting to state-changed notifications; it
// never writes back.
func (s *BudgetService) Reload(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	blob, ok, err := s.storage.Load(ctx, core.SnapshotKey)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	return s.ledger.Import(blob)
}

// CreateEnvelope creates an envelope and persists the change.
func (s *BudgetService) CreateEnvelope(ctx context.Context, name, target string, isCreditCard bool) (core.Envelope, error) {
	env, err := s.ledger.CreateEnvelope(name, target, isCreditCard)
	if err != nil {
		return core.Envelope{}, err
	}
	s.persist(ctx, amqp.EventEnvelopeCreated, env.ID)
	return env, nil
}

// UpdateEnvelope applies a partial envelope update and persists it.
func (s *BudgetService) UpdateEnvelope(ctx context.Context, id string, patch ledger.EnvelopePatch) error {
	if err := s.ledger.UpdateEnvelope(id, patch); err != nil {
		return err
	}
	s.persist(ctx, amqp.EventEnvelopeUpdated, id)
	return nil
}

// DeleteEnvelope soft-deletes an envelope. Credit-card envelopes must
// be at exactly zero first; there is no merge path for them.
func (s *BudgetService) DeleteEnvelope(ctx context.Context, id string, confirmed bool) error {
	env, err := s.ledger.Envelope(id)
	if err != nil {
		return err
	}
	if env.IsCreditCard && env.BalanceCents != 0 {
		return core.ErrCardBalanceNonzero
	}

	mergeTx, err := s.ledger.DeleteEnvelope(id, confirmed)
	if err != nil {
		return err
	}
	s.persist(ctx, amqp.EventEnvelopeDeleted, id)
	if mergeTx != nil {
		s.publishRecorded(ctx, *mergeTx)
	}
	return nil
}

// AddTransaction records a transfer and persists it.
func (s *BudgetService) AddTransaction(ctx context.Context, from, to, amount, note string) (core.Transaction, error) {
	tx, err := s.ledger.AddTransaction(from, to, amount, note)
	if err != nil {
		return core.Transaction{}, err
	}
	s.persist(ctx, amqp.EventTransactionAdded, tx.ID)
	s.publishRecorded(ctx, tx)
	return tx, nil
}

// UpdateTransaction edits a recorded transaction and persists it.
func (s *BudgetService) UpdateTransaction(ctx context.Context, id string, patch ledger.TransactionPatch) (core.Transaction, error) {
	tx, err := s.ledger.UpdateTransaction(id, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	s.persist(ctx, amqp.EventTransactionUpdated, tx.ID)
	return tx, nil
}

// DeleteTransaction rolls a transaction back and persists the change.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.ledger.DeleteTransaction(id); err != nil {
		return err
	}
	s.persist(ctx, amqp.EventTransactionDeleted, id)
	return nil
}

// PlanAllocation previews the allocation without applying it.
func (s *BudgetService) PlanAllocation() (ledger.AllocationPlan, error) {
	return s.ledger.PlanAllocation()
}

// AutoAllocate distributes the income balance across targets and
// persists the result. Allocation moves are silent adjustments, so no
// recorded message is published for them.
func (s *BudgetService) AutoAllocate(ctx context.Context) (ledger.AllocationPlan, error) {
	plan, err := s.ledger.AutoAllocate()
	if err != nil {
		return ledger.AllocationPlan{}, err
	}
	s.persist(ctx, amqp.EventAllocationRun, "")
	return plan, nil
}

// RunMaintenance prunes old transactions, collects unused envelopes and
// persists the result. Returns the removal counts.
func (s *BudgetService) RunMaintenance(ctx context.Context) (pruned, cleaned int) {
	pruned = s.ledger.PruneOldTransactions(s.ledger.Settings().TransactionRetentionDays)
	cleaned = s.ledger.CleanupUnusedEnvelopes()
	if pruned > 0 || cleaned > 0 {
		s.persist(ctx, amqp.EventMaintenanceRun, "")
	}
	slog.InfoContext(ctx, "Maintenance pass finished",
		"pruned_transactions", pruned,
		"removed_envelopes", cleaned)
	return pruned, cleaned
}

// SetRetentionDays updates the retention window setting.
func (s *BudgetService) SetRetentionDays(ctx context.Context, days int) error {
	if err := s.ledger.SetRetentionDays(days); err != nil {
		return err
	}
	s.persist(ctx, amqp.EventSettingsChanged, "")
	return nil
}

// SetBankBalance records the informational bank balance.
func (s *BudgetService) SetBankBalance(ctx context.Context, cents int64) {
	s.ledger.SetBankBalance(cents)
	s.persist(ctx, amqp.EventSettingsChanged, "")
}

// Export returns the current state blob, identical to what persist
// writes to the store.
func (s *BudgetService) Export() ([]byte, error) {
	return s.ledger.Export()
}

// Import replaces the whole state with an externally supplied blob.
// Rejected blobs leave the state untouched.
func (s *BudgetService) Import(ctx context.Context, blob []byte) error {
	if err := s.ledger.Import(blob); err != nil {
		return err
	}
	s.persist(ctx, amqp.EventStateImported, "")
	return nil
}

// Status reports whether the in-memory state has changes the store does
// not have, plus the last successful save time.
func (s *BudgetService) Status(ctx context.Context) Status {
	st := Status{Dirty: s.dirty.Load()}
	if s.storage != nil {
		if t, ok, err := s.storage.LastSavedAt(ctx, core.SnapshotKey); err == nil && ok {
			st.LastSavedAt = &t
		}
	}
	return st
}

// Ledger exposes the underlying ledger for read-only queries.
func (s *BudgetService) Ledger() *ledger.Ledger {
	return s.ledger
}

// persist saves the snapshot and notifies consumers. Failures are
// logged and flip the dirty flag; the mutation itself stands.
func (s *BudgetService) persist(ctx context.Context, kind, entityID string) {
	if s.storage != nil {
		blob, err := s.ledger.Export()
		if err != nil {
			slog.ErrorContext(ctx, "Failed to encode state", "error", err)
			s.dirty.Store(true)
			return
		}
		if err := s.storage.Save(ctx, core.SnapshotKey, blob); err != nil {
			slog.ErrorContext(ctx, "Failed to save snapshot",
				"kind", kind, "error", err)
			s.dirty.Store(true)
			return
		}
		s.dirty.Store(false)
	}

	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishStateChanged(ctx, kind, entityID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish state changed message",
			"kind", kind, "entity_id", entityID, "error", err)
		// Don't fail the request - state is saved locally
	}
}

// publishRecorded hands a recorded history entry to the Sheets mirror.
// Silent allocator adjustments never reach this.
func (s *BudgetService) publishRecorded(ctx context.Context, tx core.Transaction) {
	if s.amqpClient == nil {
		return
	}
	msg := &amqp.TransactionRecordedMessage{
		TransactionID: tx.ID,
		Timestamp:     tx.Timestamp,
		FromName:      s.ledger.EnvelopeName(tx.FromEnvelopeID),
		ToName:        s.ledger.EnvelopeName(tx.ToEnvelopeID),
		AmountCents:   tx.AmountCents,
		Note:          tx.Note,
	}
	if err := s.amqpClient.PublishTransactionRecorded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
			"transaction_id", tx.ID, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *BudgetService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %v", errs)
	}

	return nil
}
