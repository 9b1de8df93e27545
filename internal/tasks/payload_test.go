package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotforge/internal/services"
	"ballotforge/internal/tasks"
)

type recordingHandlers struct {
	packages []tasks.GenerateElectionPackage
	decks    []tasks.GenerateTestDecks
}

func (r *recordingHandlers) GenerateElectionPackage(_ context.Context, p tasks.GenerateElectionPackage) error {
	r.packages = append(r.packages, p)
	return nil
}

func (r *recordingHandlers) GenerateTestDecks(_ context.Context, p tasks.GenerateTestDecks) error {
	r.decks = append(r.decks, p)
	return errors.New("deck failure")
}

type fakeCreator struct {
	name    tasks.Name
	payload string
}

func (f *fakeCreator) CreateTask(_ context.Context, name tasks.Name, payload string) (string, error) {
	f.name = name
	f.payload = payload
	return "task-1", nil
}

func TestDecodeDispatchesToMatchingHandler(t *testing.T) {
	h := &recordingHandlers{}

	p, err := tasks.Decode(tasks.NameGenerateElectionPackage, `{"electionId":"e1","shouldExportAudio":true}`)
	require.NoError(t, err)
	require.NoError(t, tasks.Dispatch(context.Background(), p, h))
	require.Len(t, h.packages, 1)
	assert.Equal(t, "e1", h.packages[0].ElectionID)
	assert.True(t, h.packages[0].ShouldExportAudio)

	p, err = tasks.Decode(tasks.NameGenerateTestDecks, `{"electionId":"e2"}`)
	require.NoError(t, err)
	err = tasks.Dispatch(context.Background(), p, h)
	assert.EqualError(t, err, "deck failure")
	require.Len(t, h.decks, 1)
}

func TestDecodeRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name tasks.Name
		raw  string
	}{
		{tasks.NameGenerateElectionPackage, `{"electionId":""}`},
		{tasks.NameGenerateElectionPackage, `{"electionId":"e1","extra":1}`},
		{tasks.NameGenerateTestDecks, `not json`},
		{tasks.NameGenerateTestDecks, `{"electionId":"e1"} {}`},
	}
	for _, tc := range cases {
		_, err := tasks.Decode(tc.name, tc.raw)
		require.Error(t, err, tc.raw)
		assert.True(t, errors.Is(err, services.ErrValidation), "expected validation error for %s, got %v", tc.raw, err)
	}
}

func TestDecodeUnknownName(t *testing.T) {
	_, err := tasks.Decode("reticulate_splines", `{}`)
	assert.ErrorIs(t, err, tasks.ErrUnknownTask)
}

func TestEnqueueValidatesBeforeCreating(t *testing.T) {
	c := &fakeCreator{}
	_, err := tasks.Enqueue(context.Background(), c, tasks.GenerateTestDecks{})
	require.Error(t, err)
	assert.Empty(t, c.name, "invalid payload must not reach the store")

	id, err := tasks.Enqueue(context.Background(), c, tasks.GenerateElectionPackage{ElectionID: "e1", ShouldTriggerQABuild: true})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.Equal(t, tasks.NameGenerateElectionPackage, c.name)

	decoded, err := tasks.Decode(c.name, c.payload)
	require.NoError(t, err)
	assert.Equal(t, tasks.GenerateElectionPackage{ElectionID: "e1", ShouldTriggerQABuild: true}, decoded)
}

func TestTaskState(t *testing.T) {
	now := time.Now()
	task := &tasks.Task{}
	assert.Equal(t, tasks.StateQueued, task.State())
	task.StartedAt = &now
	assert.Equal(t, tasks.StateRunning, task.State())
	task.CompletedAt = &now
	assert.Equal(t, tasks.StateSucceeded, task.State())
	task.Error = "boom"
	assert.Equal(t, tasks.StateFailed, task.State())
}

func TestPrettyFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "{\n  \"electionId\": \"e1\"\n}", tasks.Pretty(`{"electionId":"e1"}`))
	assert.Equal(t, "not json", tasks.Pretty("not json"))
}

func TestEveryKindNamesItsElection(t *testing.T) {
	payloads := []tasks.Payload{
		tasks.GenerateElectionPackage{ElectionID: "e1", ShouldExportAudio: true},
		tasks.GenerateTestDecks{ElectionID: "e1"},
	}
	require.Len(t, payloads, len(tasks.Names()))
	for _, p := range payloads {
		assert.Equal(t, "e1", p.TargetElection(), p.TaskName())
	}
}
