package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fitlog/internal/backup"
	"fitlog/internal/cli"
	"fitlog/internal/config"
	"fitlog/internal/goals"
	apphttp "fitlog/internal/http"
	"fitlog/internal/ledger"
	"fitlog/internal/log"
	"fitlog/internal/middleware/ratelimit"
	"fitlog/internal/tracker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	logger, logCloser := cli.SetupLogger(cfg, log.ComponentApp)
	defer logCloser.Close()
	cli.ValidateConfig(logger, cfg.Validate)

	if err := run(cfg, logger); err != nil {
		logger.Error("fitlog exited with error", log.FieldError, err)
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := cli.InitStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	l, err := ledger.Load(ctx, store, ledger.Options{Location: loc})
	if err != nil {
		return err
	}
	g, err := goals.Load(ctx, store, cfg.GoalDebounce)
	if err != nil {
		return err
	}

	reg := cli.NewRegistry()

	transport, transportCloser, err := cli.BuildTransport(ctx, cfg)
	if err != nil {
		return err
	}
	defer transportCloser.Close()

	notifier := backup.NewNotifier(transport, backup.Config{
		MaxRetries: cfg.BackupMaxRetries,
		RetryDelay: cfg.BackupRetryDelay,
		Metrics:    backup.NewMetrics(reg),
	})

	t := tracker.New(l, g, notifier)

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimitPerMinute
	srv, err := apphttp.NewServer(":"+cfg.Port, t, apphttp.Options{
		Registry:       reg,
		RateLimit:      rl,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
		Checks: map[string]apphttp.ReadinessCheck{
			"storage": store.Ping,
		},
	})
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Starting fitlog server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"backup_transport", cfg.BackupTransport,
			"timezone", loc.String(),
			"days", l.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		return shutdown(cfg.ShutdownTimeout, logger, srv, t, notifier)
	})
	return group.Wait()
}

// shutdown stops the server, then persists any goal draft, then drains
// pending backups. The store is closed by run once this returns.
func shutdown(timeout time.Duration, logger *log.Logger, srv *apphttp.Server, t *tracker.Tracker, n *backup.Notifier) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if t.FlushGoals() {
		logger.Info("Pending goal edit saved")
	}
	if err := n.Close(ctx); err != nil {
		logger.Warn("Backups still pending at shutdown were abandoned", log.FieldError, err)
	}
	return errors.Join(errs...)
}
