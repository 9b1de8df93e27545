package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ballotforge/internal/tasks"
)

// timeLayout is fixed width so lexical order in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// maxInParams keeps IN lists well below SQLite's host parameter limit.
const maxInParams = 500

const taskColumns = "id, task_name, payload, created_at, started_at, completed_at, error"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*tasks.Task, error) {
	var (
		id           string
		name         string
		payload      string
		createdRaw   string
		startedRaw   sql.NullString
		completedRaw sql.NullString
		errMsg       sql.NullString
	)
	if err := scanner.Scan(&id, &name, &payload, &createdRaw, &startedRaw, &completedRaw, &errMsg); err != nil {
		return nil, err
	}

	task := &tasks.Task{
		ID:      id,
		Name:    tasks.Name(name),
		Payload: payload,
		Error:   errMsg.String,
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("task %s: parse created_at %q: %w", id, createdRaw, err)
	}
	task.CreatedAt = created
	if startedRaw.Valid {
		started, err := parseTime(startedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("task %s: parse started_at %q: %w", id, startedRaw.String, err)
		}
		task.StartedAt = &started
	}
	if completedRaw.Valid {
		completed, err := parseTime(completedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("task %s: parse completed_at %q: %w", id, completedRaw.String, err)
		}
		task.CompletedAt = &completed
	}
	return task, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func chunk(values []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		out = append(out, values[start:end])
	}
	return out
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
