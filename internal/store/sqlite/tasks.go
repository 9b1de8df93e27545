package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
)

// CreateTask inserts a queued task and returns its id.
func (s *Store) CreateTask(ctx context.Context, name tasks.Name, payload string) (string, error) {
	id := s.newID()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO background_tasks (id, task_name, payload, created_at) VALUES (?, ?, ?, ?)`,
		id, string(name), payload, formatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*tasks.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM background_tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetOldestQueued returns the next task the worker should run.
func (s *Store) GetOldestQueued(ctx context.Context) (*tasks.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+` FROM background_tasks
		 WHERE started_at IS NULL
		 ORDER BY created_at, id
		 LIMIT 1`)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oldest queued task: %w", err)
	}
	return task, nil
}

// Claim starts a queued task. The conditional update makes it a compare-and-set.
func (s *Store) Claim(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE background_tasks SET started_at = ? WHERE id = ? AND started_at IS NULL`,
		formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("claim task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim task rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.missingOr(ctx, id, store.ErrAlreadyClaimed)
}

// Complete finishes an in-flight task, recording errMsg when it failed.
func (s *Store) Complete(ctx context.Context, id string, errMsg string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE background_tasks SET completed_at = ?, error = ?
		 WHERE id = ? AND started_at IS NOT NULL AND completed_at IS NULL`,
		formatTime(s.now()), nullableString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete task rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.missingOr(ctx, id, store.ErrNotInFlight)
}

func (s *Store) missingOr(ctx context.Context, id string, otherwise error) error {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM background_tasks WHERE id = ?", id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check task existence: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	return fmt.Errorf("%w: %s", otherwise, id)
}

// RequeueInterrupted clears the start time of every task that never finished.
func (s *Store) RequeueInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE background_tasks SET started_at = NULL
		 WHERE started_at IS NOT NULL AND completed_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("requeue interrupted tasks: %w", err)
	}
	return res.RowsAffected()
}

// ListTasks returns tasks newest first, optionally filtered by state.
func (s *Store) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*tasks.Task, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString("SELECT " + taskColumns + " FROM background_tasks")
	switch filter.State {
	case "":
	case tasks.StateQueued:
		query.WriteString(" WHERE started_at IS NULL")
	case tasks.StateRunning:
		query.WriteString(" WHERE started_at IS NOT NULL AND completed_at IS NULL")
	case tasks.StateSucceeded:
		query.WriteString(" WHERE completed_at IS NOT NULL AND (error IS NULL OR error = '')")
	case tasks.StateFailed:
		query.WriteString(" WHERE completed_at IS NOT NULL AND error IS NOT NULL AND error != ''")
	default:
		return nil, fmt.Errorf("unknown task state %q", filter.State)
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*tasks.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}
