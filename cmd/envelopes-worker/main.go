package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"envelopes/internal/amqp"
	"envelopes/internal/config"
	"envelopes/internal/core"
	"envelopes/internal/ledger"
	applog "envelopes/internal/log"
	"envelopes/internal/services"
	"envelopes/internal/sheets"
	gsheet "envelopes/internal/sheets/google"
	"envelopes/internal/storage"
	"envelopes/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting envelopes-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Google Sheets history mirror (optional).
	var appender sheets.HistoryAppender
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker runs over its own ledger view of the shared snapshot.
	// It publishes nothing; state-changed messages trigger a reload.
	svc := services.NewBudgetService(ledger.New(core.NewState()), repo, nil)
	if _, err := svc.Init(ctx); err != nil {
		logger.Error("Failed to load ledger state", "error", err)
		os.Exit(1)
	}
	maintWorker := worker.NewMaintenanceWorker(svc, appender, cfg.MaintenanceInterval)

	// Handle shutdown signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.Consume(gctx,
			func(msg *amqp.TransactionRecordedMessage) error {
				return maintWorker.HandleRecordedMessage(gctx, msg)
			},
			func(msg *amqp.StateChangedMessage) error {
				if err := svc.Reload(gctx); err != nil {
					logger.Error("State reload failed", "kind", msg.Kind, "error", err)
					return err
				}
				return nil
			})
	})

	g.Go(func() error {
		return maintWorker.RunPeriodic(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
