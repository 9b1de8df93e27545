package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/gofrs/flock"

	"ballotforge/internal/logging"
	"ballotforge/internal/worker"
)

// ErrAlreadyRunning is returned when another process holds the worker lock.
var ErrAlreadyRunning = errors.New("another ballotforge worker is already running")

// Runner is the loop the daemon guards.
type Runner interface {
	Run(ctx context.Context) error
	Status() worker.Summary
}

// Daemon runs the worker while holding the lock file.
type Daemon struct {
	runner   Runner
	logger   *slog.Logger
	lockPath string
	pidPath  string
	lock     *flock.Flock
	running  atomic.Bool
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithPIDFile writes the process id to path while the lock is held.
func WithPIDFile(path string) Option {
	return func(d *Daemon) {
		d.pidPath = path
	}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Worker       worker.Summary
	LockFilePath string
}

// New constructs a daemon guarding runner with the lock at lockPath.
func New(lockPath string, runner Runner, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if runner == nil || lockPath == "" {
		return nil, errors.New("daemon requires a worker and a lock path")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run acquires the lock and blocks in the worker loop until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release worker lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String("lock", d.lockPath),
			)
		}
	}()

	// Only the lock holder touches the PID file.
	if d.pidPath != "" {
		if err := writePIDFile(d.pidPath); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer os.Remove(d.pidPath)
	}

	d.logger.Info("ballotforge worker started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
	)
	err = d.runner.Run(ctx)
	d.logger.Info("ballotforge worker stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	return err
}

// Status reports whether the loop is running and the worker's progress.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Worker:       d.runner.Status(),
		LockFilePath: d.lockPath,
	}
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
