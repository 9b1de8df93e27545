// Package memory is an in-process store used by tests and dry runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"ballotforge/internal/election"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
)

type electionRow struct {
	election  []byte
	settings  []byte
	export    election.ExportMetadata
	updatedAt time.Time
}

type cacheKey struct {
	language string
	text     string
}

// Store keeps everything in maps guarded by a single mutex.
type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	newID        func() string
	tasks        map[string]*tasks.Task
	elections    map[string]electionRow
	translations map[cacheKey]string
	speech       map[cacheKey][]byte
}

var _ store.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		newID:        store.NewTaskID,
		tasks:        make(map[string]*tasks.Task),
		elections:    make(map[string]electionRow),
		translations: make(map[cacheKey]string),
		speech:       make(map[cacheKey][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneTask(t *tasks.Task) *tasks.Task {
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

func (s *Store) CreateTask(_ context.Context, name tasks.Name, payload string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.tasks[id] = &tasks.Task{ID: id, Name: name, Payload: payload, CreatedAt: s.now().UTC()}
	return id, nil
}

func (s *Store) GetTask(_ context.Context, id string) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return cloneTask(t), nil
}

func (s *Store) GetOldestQueued(_ context.Context) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *tasks.Task
	for _, t := range s.tasks {
		if t.StartedAt != nil {
			continue
		}
		if oldest == nil || compareCreated(t, oldest) < 0 {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, nil
	}
	return cloneTask(oldest), nil
}

func compareCreated(a, b *tasks.Task) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func (s *Store) Claim(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	if t.StartedAt != nil {
		return fmt.Errorf("%w: %s", store.ErrAlreadyClaimed, id)
	}
	now := s.now().UTC()
	t.StartedAt = &now
	return nil
}

func (s *Store) Complete(_ context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}
	if t.StartedAt == nil || t.CompletedAt != nil {
		return fmt.Errorf("%w: %s", store.ErrNotInFlight, id)
	}
	now := s.now().UTC()
	t.CompletedAt = &now
	t.Error = errMsg
	return nil
}

func (s *Store) RequeueInterrupted(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tasks {
		if t.StartedAt != nil && t.CompletedAt == nil {
			t.StartedAt = nil
			n++
		}
	}
	return n, nil
}

func (s *Store) ListTasks(_ context.Context, filter store.TaskFilter) ([]*tasks.Task, error) {
	switch filter.State {
	case "", tasks.StateQueued, tasks.StateRunning, tasks.StateSucceeded, tasks.StateFailed:
	default:
		return nil, fmt.Errorf("unknown task state %q", filter.State)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*tasks.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.State != "" && t.State() != filter.State {
			continue
		}
		out = append(out, cloneTask(t))
	}
	slices.SortFunc(out, func(a, b *tasks.Task) int { return compareCreated(b, a) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) PutElection(_ context.Context, e election.Election, settings election.Settings) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	electionData, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode election: %w", err)
	}
	settingsData, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.elections[e.ID]
	row.election = electionData
	row.settings = settingsData
	row.updatedAt = s.now().UTC()
	s.elections[e.ID] = row
	return nil
}

func (s *Store) GetElection(_ context.Context, id string) (*election.Record, error) {
	s.mu.Lock()
	row, ok := s.elections[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	rec := &election.Record{Export: row.export, UpdatedAt: row.updatedAt}
	if err := json.Unmarshal(row.election, &rec.Election); err != nil {
		return nil, fmt.Errorf("decode election %s: %w", id, err)
	}
	if err := json.Unmarshal(row.settings, &rec.Settings); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", id, err)
	}
	return store.Hydrate(rec), nil
}

func (s *Store) SetExportMetadata(_ context.Context, id string, meta election.ExportMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.elections[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrElectionNotFound, id)
	}
	decks, tally := row.export.TestDecksURL, row.export.TestDecksTallyURL
	row.export = meta
	row.export.TestDecksURL, row.export.TestDecksTallyURL = decks, tally
	row.updatedAt = s.now().UTC()
	s.elections[id] = row
	return nil
}

func (s *Store) SetTestDecksURL(_ context.Context, id string, decksURL, tallyURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.elections[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrElectionNotFound, id)
	}
	row.export.TestDecksURL = decksURL
	row.export.TestDecksTallyURL = tallyURL
	row.updatedAt = s.now().UTC()
	s.elections[id] = row
	return nil
}

func (s *Store) GetTranslations(_ context.Context, language string, texts []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for _, text := range texts {
		if v, ok := s.translations[cacheKey{language, text}]; ok {
			out[text] = v
		}
	}
	return out, nil
}

func (s *Store) PutTranslations(_ context.Context, language string, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for text, v := range entries {
		s.translations[cacheKey{language, text}] = v
	}
	return nil
}

func (s *Store) GetAudioClips(_ context.Context, language string, texts []string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte)
	for _, text := range texts {
		if v, ok := s.speech[cacheKey{language, text}]; ok {
			out[text] = slices.Clone(v)
		}
	}
	return out, nil
}

func (s *Store) PutAudioClips(_ context.Context, language string, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for text, v := range entries {
		s.speech[cacheKey{language, text}] = slices.Clone(v)
	}
	return nil
}
