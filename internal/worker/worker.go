package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ballotforge/internal/config"
	"ballotforge/internal/logging"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
)

// Worker processes the task queue sequentially.
type Worker struct {
	queue              store.TaskQueue
	handlers           tasks.Handlers
	logger             *slog.Logger
	pollInterval       time.Duration
	errorRetryInterval time.Duration
	newRequestID       func() string

	mu        sync.RWMutex
	running   bool
	lastErr   error
	lastTask  *tasks.Task
	processed int
}

// Option configures optional Worker behavior.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithPollInterval sets the idle sleep between empty polls.
func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.pollInterval = d
	}
}

// WithErrorRetryInterval sets the pause after a store error.
func WithErrorRetryInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.errorRetryInterval = d
	}
}

// New constructs a worker over queue dispatching to handlers.
func New(queue store.TaskQueue, handlers tasks.Handlers, opts ...Option) *Worker {
	w := &Worker{
		queue:              queue,
		handlers:           handlers,
		logger:             logging.NewNop(),
		pollInterval:       time.Second,
		errorRetryInterval: 5 * time.Second,
		newRequestID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "worker")
	return w
}

// NewFromConfig applies the [worker] intervals.
func NewFromConfig(cfg *config.Config, queue store.TaskQueue, handlers tasks.Handlers, logger *slog.Logger) *Worker {
	return New(queue, handlers,
		WithLogger(logger),
		WithPollInterval(cfg.QueuePollInterval()),
		WithErrorRetryInterval(cfg.ErrorRetryInterval()),
	)
}

// Summary is a snapshot of worker progress.
type Summary struct {
	Running   bool
	Processed int
	LastError string
	LastTask  *tasks.Task
}

// Status returns the latest worker information.
func (w *Worker) Status() Summary {
	w.mu.RLock()
	defer w.mu.RUnlock()
	summary := Summary{Running: w.running, Processed: w.processed}
	if w.lastErr != nil {
		summary.LastError = w.lastErr.Error()
	}
	if w.lastTask != nil {
		copy := *w.lastTask
		summary.LastTask = &copy
	}
	return summary
}

func (w *Worker) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()
}

func (w *Worker) setLastError(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *Worker) recordTask(task *tasks.Task) {
	w.mu.Lock()
	copy := *task
	w.lastTask = &copy
	w.processed++
	w.mu.Unlock()
}
