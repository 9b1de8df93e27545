package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ballotforge/internal/services"
)

// ErrUnknownTask is returned when a stored task name has no payload type.
// It indicates a build mismatch between enqueuer and worker.
var ErrUnknownTask = errors.New("unknown task name")

// Handlers has one method per task kind. Adding a kind means adding a method
// here, which breaks the build until every handler set implements it.
type Handlers interface {
	GenerateElectionPackage(ctx context.Context, p GenerateElectionPackage) error
	GenerateTestDecks(ctx context.Context, p GenerateTestDecks) error
}

// Payload is implemented only by the payload types in this package.
type Payload interface {
	TaskName() Name
	// TargetElection names the election the task works on.
	TargetElection() string
	Validate() error
	accept(ctx context.Context, h Handlers) error
}

// GenerateElectionPackage exports ballots, audio, and the election package.
type GenerateElectionPackage struct {
	ElectionID           string `json:"electionId"`
	ShouldExportAudio    bool   `json:"shouldExportAudio"`
	ShouldTriggerQABuild bool   `json:"shouldTriggerQaBuild,omitempty"`
}

func (GenerateElectionPackage) TaskName() Name { return NameGenerateElectionPackage }

func (p GenerateElectionPackage) TargetElection() string { return p.ElectionID }

func (p GenerateElectionPackage) Validate() error {
	return requireElectionID(NameGenerateElectionPackage, p.ElectionID)
}

func (p GenerateElectionPackage) accept(ctx context.Context, h Handlers) error {
	return h.GenerateElectionPackage(ctx, p)
}

// GenerateTestDecks renders pre-marked test ballots with their expected tally.
type GenerateTestDecks struct {
	ElectionID string `json:"electionId"`
}

func (GenerateTestDecks) TaskName() Name { return NameGenerateTestDecks }

func (p GenerateTestDecks) TargetElection() string { return p.ElectionID }

func (p GenerateTestDecks) Validate() error {
	return requireElectionID(NameGenerateTestDecks, p.ElectionID)
}

func (p GenerateTestDecks) accept(ctx context.Context, h Handlers) error {
	return h.GenerateTestDecks(ctx, p)
}

// Dispatch invokes the handler method matching the payload's kind.
func Dispatch(ctx context.Context, p Payload, h Handlers) error {
	return p.accept(ctx, h)
}

// Encode validates and serializes a payload for storage.
func Encode(p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", p.TaskName(), err)
	}
	return string(data), nil
}

// Decode parses and validates a stored payload. Unknown fields are rejected.
func Decode(name Name, raw string) (Payload, error) {
	switch name {
	case NameGenerateElectionPackage:
		return decodeStrict[GenerateElectionPackage](name, raw)
	case NameGenerateTestDecks:
		return decodeStrict[GenerateTestDecks](name, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
}

func decodeStrict[P Payload](name Name, raw string) (Payload, error) {
	var p P
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, services.Wrap(services.ErrValidation, string(name), "decode payload", "malformed payload", err)
	}
	if dec.More() {
		return nil, services.Wrap(services.ErrValidation, string(name), "decode payload", "trailing data after payload", nil)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Creator persists a new task. The store adapters implement it.
type Creator interface {
	CreateTask(ctx context.Context, name Name, payload string) (string, error)
}

// Enqueue validates the payload before anything is written, so malformed
// requests never become tasks.
func Enqueue(ctx context.Context, c Creator, p Payload) (string, error) {
	raw, err := Encode(p)
	if err != nil {
		return "", err
	}
	return c.CreateTask(ctx, p.TaskName(), raw)
}

// Pretty re-indents a stored payload for display.
func Pretty(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

func requireElectionID(name Name, id string) error {
	if strings.TrimSpace(id) == "" {
		return services.Wrap(services.ErrValidation, string(name), "validate payload", "electionId is required", nil)
	}
	return nil
}
