package store

import (
	"context"
	"errors"

	"ballotforge/internal/election"
	"ballotforge/internal/tasks"
)

var (
	// ErrAlreadyClaimed is returned by Claim when another caller started the task first.
	ErrAlreadyClaimed = errors.New("task already claimed")
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotInFlight is returned by Complete for tasks that are queued or already done.
	ErrNotInFlight = errors.New("task is not in flight")
	// ErrElectionNotFound is returned by election setters for unknown ids.
	ErrElectionNotFound = errors.New("election not found")
)

// TaskFilter narrows ListTasks. A zero State lists every task; a zero Limit
// means no limit.
type TaskFilter struct {
	State tasks.State
	Limit int
}

// TaskQueue is the durable single-worker queue.
type TaskQueue interface {
	CreateTask(ctx context.Context, name tasks.Name, payload string) (string, error)
	// GetTask returns nil, nil when the id is unknown.
	GetTask(ctx context.Context, id string) (*tasks.Task, error)
	// GetOldestQueued returns the queued task with the smallest CreatedAt
	// (ties broken by id), or nil, nil when nothing is queued.
	GetOldestQueued(ctx context.Context) (*tasks.Task, error)
	// Claim marks a queued task started. At most one concurrent caller wins;
	// the others get ErrAlreadyClaimed.
	Claim(ctx context.Context, id string) error
	// Complete marks an in-flight task done. An empty errMsg means success.
	Complete(ctx context.Context, id string, errMsg string) error
	// RequeueInterrupted returns every in-flight task to the queue.
	RequeueInterrupted(ctx context.Context) (int64, error)
	// ListTasks returns tasks newest first.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*tasks.Task, error)
}

// Elections persists election definitions and export metadata. Ballot styles
// are never stored; GetElection recomputes them on every read.
type Elections interface {
	PutElection(ctx context.Context, e election.Election, settings election.Settings) error
	// GetElection returns nil, nil when the id is unknown.
	GetElection(ctx context.Context, id string) (*election.Record, error)
	SetExportMetadata(ctx context.Context, id string, meta election.ExportMetadata) error
	SetTestDecksURL(ctx context.Context, id string, decksURL, tallyURL string) error
}

// TranslationCache memoizes cloud translations keyed by (source text, language).
type TranslationCache interface {
	// GetTranslations returns only the texts found in the cache.
	GetTranslations(ctx context.Context, language string, texts []string) (map[string]string, error)
	PutTranslations(ctx context.Context, language string, entries map[string]string) error
}

// SpeechCache memoizes synthesized audio keyed by (text, language).
type SpeechCache interface {
	// GetAudioClips returns only the texts found in the cache.
	GetAudioClips(ctx context.Context, language string, texts []string) (map[string][]byte, error)
	PutAudioClips(ctx context.Context, language string, entries map[string][]byte) error
}

// Store is everything the worker and its handlers need from persistence.
type Store interface {
	TaskQueue
	Elections
	TranslationCache
	SpeechCache
	Close() error
}
