package tasks

import "time"

// Name is the closed set of background task kinds.
type Name string

const (
	NameGenerateElectionPackage Name = "generate_election_package"
	NameGenerateTestDecks       Name = "generate_test_decks"
)

// Names lists every task kind in a stable order.
func Names() []Name {
	return []Name{NameGenerateElectionPackage, NameGenerateTestDecks}
}

// State is derived from the task timestamps; it is never stored.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Task is a persisted unit of asynchronous work. It is queued while StartedAt
// is nil, in flight while StartedAt is set and CompletedAt is nil, and done
// once CompletedAt is set. A done task failed iff Error is non-empty.
type Task struct {
	ID          string
	Name        Name
	Payload     string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       string
}

// State reports the lifecycle state implied by the timestamps.
func (t *Task) State() State {
	switch {
	case t.CompletedAt != nil && t.Error != "":
		return StateFailed
	case t.CompletedAt != nil:
		return StateSucceeded
	case t.StartedAt != nil:
		return StateRunning
	default:
		return StateQueued
	}
}
