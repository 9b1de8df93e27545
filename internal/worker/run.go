package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"ballotforge/internal/logging"
	"ballotforge/internal/services"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
	"ballotforge/internal/tracing"
)

// fallbackFailure is stored when a failure carries no message, since an
// empty error means success.
const fallbackFailure = "task failed"

// Run requeues interrupted tasks once and then processes the queue until ctx
// is cancelled. Only the startup requeue can make Run return an error.
func (w *Worker) Run(ctx context.Context) error {
	requeued, err := w.queue.RequeueInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("requeue interrupted tasks: %w", err)
	}
	if requeued > 0 {
		logging.WarnWithContext(w.logger, "requeued interrupted tasks", "tasks_requeued",
			logging.Int64("count", requeued),
			logging.String(logging.FieldImpact, "interrupted tasks restart from the beginning"),
			logging.String(logging.FieldErrorHint, "a previous worker exited while a task was running"),
		)
	}

	w.setRunning(true)
	defer w.setRunning(false)
	w.logger.Info("worker started",
		logging.String(logging.FieldEventType, "worker_start"),
		logging.Duration("poll_interval", w.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped", logging.String(logging.FieldEventType, "worker_stop"))
			return nil
		default:
		}

		processed, err := w.RunOnce(ctx)
		switch {
		case err != nil:
			w.handleStoreError(ctx, err)
		case !processed:
			w.wait(ctx, w.pollInterval)
		}
	}
}

// RunOnce processes at most one task. It reports whether a task was taken off
// the queue; errors come only from fetching or claiming. Once a task is
// claimed RunOnce does not return until its outcome is recorded.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	task, err := w.queue.GetOldestQueued(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch next task: %w", err)
	}
	if task == nil {
		return false, nil
	}

	if err := w.queue.Claim(ctx, task.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			logging.WarnWithContext(w.logger, "task claimed by another worker", "task_claim_lost",
				logging.String(logging.FieldTaskID, task.ID),
				logging.String(logging.FieldErrorHint, "only one worker should run per database"),
				logging.String(logging.FieldImpact, "task skipped by this worker"),
			)
			return true, nil
		}
		return false, fmt.Errorf("claim task %s: %w", task.ID, err)
	}

	// The outcome is recorded even when shutdown began during the task.
	taskCtx := context.WithoutCancel(ctx)
	message := w.execute(taskCtx, task)
	w.complete(taskCtx, task.ID, message)

	if done, err := w.queue.GetTask(taskCtx, task.ID); err == nil && done != nil {
		w.recordTask(done)
	} else {
		w.recordTask(task)
	}
	return true, nil
}

// complete records the outcome, retrying store errors on the error retry
// interval until it sticks. ctx is detached from shutdown, so an outcome is
// never dropped once the handler has run.
func (w *Worker) complete(ctx context.Context, id, message string) {
	for attempt := 1; ; attempt++ {
		err := w.queue.Complete(ctx, id, message)
		if err == nil {
			return
		}
		if errors.Is(err, store.ErrNotInFlight) || errors.Is(err, store.ErrTaskNotFound) {
			logging.WarnWithContext(w.logger, "task outcome not recorded", "task_complete_skipped",
				logging.String(logging.FieldTaskID, id),
				logging.String(logging.FieldImpact, "the task is no longer in flight"),
				logging.Error(err),
			)
			return
		}
		w.setLastError(err)
		logging.ErrorWithContext(w.logger, "record task outcome failed", "task_complete_failed",
			logging.String(logging.FieldTaskID, id),
			logging.Int("attempt", attempt),
			logging.String(logging.FieldErrorHint, "check database access; the outcome is retried"),
			logging.Error(err),
		)
		w.wait(ctx, w.errorRetryInterval)
	}
}

// execute returns the failure message, or "" on success.
func (w *Worker) execute(ctx context.Context, task *tasks.Task) (message string) {
	ctx = services.WithTaskID(ctx, task.ID)
	ctx = services.WithTaskName(ctx, string(task.Name))
	ctx = services.WithRequestID(ctx, w.newRequestID())
	ctx, span := tracing.StartSpan(ctx, "task."+string(task.Name))
	logger := logging.WithContext(ctx, w.logger)

	start := time.Now()
	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.Duration("queued_for", start.Sub(task.CreatedAt)),
	)

	defer func() {
		if r := recover(); r != nil {
			message = fmt.Sprint(r)
			if message == "" {
				message = fallbackFailure
			}
			span.End(errors.New(message))
			logging.ErrorWithContext(logger, "task panicked", "task_panic",
				logging.String("panic", message),
				logging.String("stack", string(debug.Stack())),
				logging.Duration("elapsed", time.Since(start)),
			)
		}
	}()

	err := w.dispatch(ctx, task)
	span.End(err)
	if err != nil {
		message = err.Error()
		if message == "" {
			message = fallbackFailure
		}
		w.logFailure(logger, err, time.Since(start))
		return message
	}
	logger.Info("task succeeded",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return ""
}

func (w *Worker) dispatch(ctx context.Context, task *tasks.Task) error {
	payload, err := tasks.Decode(task.Name, task.Payload)
	if err != nil {
		return err
	}
	return tasks.Dispatch(ctx, payload, w.handlers)
}

func (w *Worker) logFailure(logger *slog.Logger, err error, elapsed time.Duration) {
	hint := "check the task error and resubmit"
	switch {
	case errors.Is(err, services.ErrNotFound):
		hint = "the election was deleted or never imported"
	case errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrTimeout):
		hint = "check the external service and resubmit the task"
	case errors.Is(err, services.ErrConfiguration):
		hint = "fix the configuration and restart the worker"
	}
	logging.ErrorWithContext(logger, "task failed", "task_failure",
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, hint),
		logging.Duration("elapsed", elapsed),
		logging.Error(err),
	)
}

func (w *Worker) handleStoreError(ctx context.Context, err error) {
	w.setLastError(err)
	logging.ErrorWithContext(w.logger, "task queue unavailable", "queue_fetch_failed",
		logging.String(logging.FieldErrorHint, "check database access"),
		logging.Error(err),
	)
	w.wait(ctx, w.errorRetryInterval)
}

func (w *Worker) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
