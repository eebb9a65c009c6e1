package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fitlog/internal/amqp"
	"fitlog/internal/cache"
	"fitlog/internal/cli"
	"fitlog/internal/config"
	"fitlog/internal/ledger"
	"fitlog/internal/log"
	"fitlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	logger, logCloser := cli.SetupLogger(cfg, log.ComponentWorker)
	defer logCloser.Close()
	cli.ValidateConfig(logger, cfg.Validate, cfg.ValidateWorker)

	logger.Info("Starting fitlog-worker")
	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("fitlog-worker exited with error", log.FieldError, err)
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sheetsClient, err := cli.NewSheetsClient(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	w := worker.NewBackupWorker(sheetsClient)

	caches := cache.NewManager()
	caches.Register(sheetsClient.RowCache())
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	group, gctx := errgroup.WithContext(ctx)
	if cfg.WorkerStartupSync {
		group.Go(func() error {
			return startupSync(gctx, cfg, logger, w)
		})
	}
	group.Go(func() error {
		return amqpClient.Run(gctx, w.HandleBackupMessage)
	})
	return group.Wait()
}

// startupSync pushes every day in the local store to the sheet. It only
// reads the store, so it can run beside a live server on the same file.
func startupSync(ctx context.Context, cfg *config.Config, logger *log.Logger, w *worker.BackupWorker) error {
	store, err := cli.InitStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	l, err := ledger.Load(ctx, store, ledger.Options{Location: loc})
	if err != nil {
		return err
	}
	synced, err := w.StartupSync(ctx, l.Snapshot())
	if err != nil {
		return err
	}
	logger.Info("Startup sync finished", "synced", synced)
	return nil
}
