package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"ballotforge/internal/config"
	"ballotforge/internal/daemon"
	"ballotforge/internal/jobs"
	"ballotforge/internal/logging"
	"ballotforge/internal/preflight"
	"ballotforge/internal/store/sqlite"
	"ballotforge/internal/tracing"
	"ballotforge/internal/worker"
)

// Options configures worker process runtime behavior.
type Options struct {
	LogLevel string
	Version  string
}

// Run starts the worker and blocks until SIGINT or SIGTERM. A task that is
// running when the signal arrives finishes before Run returns.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	shutdownTracing, err := tracing.SetupFromConfig(cfg, opts.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("trace flush failed", logging.Error(err))
		}
	}()

	logPreflight(signalCtx, logger, cfg)

	st, err := sqlite.Open(cfg)
	if err != nil {
		logger.Error("open task store", logging.Error(err))
		return err
	}
	defer st.Close()

	w := worker.NewFromConfig(cfg, st, jobs.FromConfig(cfg, st, logger), logger)
	pidPath := filepath.Join(cfg.Paths.DataDir, "worker.pid")
	d, err := daemon.New(cfg.LockPath(), w, logger, daemon.WithPIDFile(pidPath))
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("ballotforge worker shutting down")
	return nil
}

// logPreflight reports problems without refusing to start; tasks that need
// a missing collaborator fail with a descriptive error instead.
func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_ok"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		impact := "tasks depending on this check will fail"
		if result.Optional {
			impact = "optional feature unavailable"
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, impact),
			logging.String(logging.FieldErrorHint, "run ballotforge status for details"),
		)
	}
}
