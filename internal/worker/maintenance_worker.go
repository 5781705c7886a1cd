// Package worker runs the background side of the engine: the periodic
// maintenance pass (retention pruning, envelope collection) and the
// Google Sheets history mirror fed by AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"envelopes/internal/amqp"
	applog "envelopes/internal/log"
	"envelopes/internal/services"
	"envelopes/internal/sheets"
)

// MaintenanceWorker prunes the ledger on a schedule and mirrors
// recorded history entries to a spreadsheet.
type MaintenanceWorker struct {
	svc      *services.BudgetService
	appender sheets.HistoryAppender
	interval time.Duration
}

func NewMaintenanceWorker(svc *services.BudgetService, appender sheets.HistoryAppender, interval time.Duration) *MaintenanceWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &MaintenanceWorker{
		svc:      svc,
		appender: appender,
		interval: interval,
	}
}

// RunOnce executes a single maintenance pass: prune old transactions,
// then collect unused envelopes, then persist whatever changed.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) (pruned, cleaned int) {
	return w.svc.RunMaintenance(ctx)
}

// RunPeriodic executes RunOnce on the configured interval until ctx
// ends. The first pass runs immediately.
func (w *MaintenanceWorker) RunPeriodic(ctx context.Context) error {
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping maintenance worker", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// HandleRecordedMessage appends one recorded history entry to the
// spreadsheet mirror.
func (w *MaintenanceWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	if w.appender == nil {
		slog.WarnContext(ctx, "No history appender configured, skipping mirror",
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	}

	ref, err := w.appender.Append(ctx, sheets.HistoryEntry{
		TransactionID: msg.TransactionID,
		Timestamp:     msg.Timestamp,
		FromName:      msg.FromName,
		ToName:        msg.ToName,
		AmountCents:   msg.AmountCents,
		Note:          msg.Note,
	})
	if err != nil {
		return fmt.Errorf("append history row: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction to sheet",
		applog.FieldTransactionID, msg.TransactionID,
		applog.FieldSheetsRef, ref)
	return nil
}
