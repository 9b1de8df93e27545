// Package storetest holds the behavioural contract every store adapter must
// satisfy. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ballotforge/internal/election"
	"ballotforge/internal/store"
	"ballotforge/internal/tasks"
	"ballotforge/internal/testsupport"
)

// Factory opens a fresh, empty store whose clock is driven by clock.
type Factory func(t *testing.T, clock *Clock) store.Store

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Run executes the full contract against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("TaskLifecycle", func(t *testing.T) { testTaskLifecycle(t, open) })
	t.Run("OldestQueuedIsFIFO", func(t *testing.T) { testOldestQueued(t, open) })
	t.Run("ClaimIsExclusive", func(t *testing.T) { testClaimExclusive(t, open) })
	t.Run("CompleteRequiresInFlight", func(t *testing.T) { testCompleteRequiresInFlight(t, open) })
	t.Run("RequeueInterrupted", func(t *testing.T) { testRequeue(t, open) })
	t.Run("ListTasks", func(t *testing.T) { testListTasks(t, open) })
	t.Run("ElectionRoundTrip", func(t *testing.T) { testElectionRoundTrip(t, open) })
	t.Run("ExportMetadata", func(t *testing.T) { testExportMetadata(t, open) })
	t.Run("TranslationCache", func(t *testing.T) { testTranslationCache(t, open) })
	t.Run("SpeechCache", func(t *testing.T) { testSpeechCache(t, open) })
}

func mustCreate(t *testing.T, st store.Store, name tasks.Name, payload string) string {
	t.Helper()
	id, err := st.CreateTask(context.Background(), name, payload)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return id
}

func mustGet(t *testing.T, st store.Store, id string) *tasks.Task {
	t.Helper()
	task, err := st.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task == nil {
		t.Fatalf("GetTask(%s) returned nil", id)
	}
	return task
}

func testTaskLifecycle(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewClock()
	st := open(t, clock)

	payload := `{"electionId":"e1","shouldExportAudio":false,"shouldTriggerQaBuild":false}`
	id := mustCreate(t, st, tasks.NameGenerateElectionPackage, payload)
	task := mustGet(t, st, id)
	if task.State() != tasks.StateQueued {
		t.Fatalf("expected queued, got %s", task.State())
	}
	if task.Payload != payload || task.Name != tasks.NameGenerateElectionPackage {
		t.Fatalf("unexpected task contents: %+v", task)
	}
	if !task.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("created_at = %v, want %v", task.CreatedAt, clock.Now())
	}

	clock.Advance(time.Second)
	if err := st.Claim(ctx, id); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	task = mustGet(t, st, id)
	if task.State() != tasks.StateRunning || task.StartedAt == nil {
		t.Fatalf("expected running, got %s", task.State())
	}

	clock.Advance(time.Second)
	if err := st.Complete(ctx, id, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	task = mustGet(t, st, id)
	if task.State() != tasks.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", task.State())
	}
	if task.CompletedAt.Before(*task.StartedAt) || task.StartedAt.Before(task.CreatedAt) {
		t.Fatalf("timestamps out of order: %+v", task)
	}

	failed := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`)
	if err := st.Claim(ctx, failed); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := st.Complete(ctx, failed, "renderer unavailable"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	task = mustGet(t, st, failed)
	if task.State() != tasks.StateFailed || task.Error != "renderer unavailable" {
		t.Fatalf("expected failed with message, got %s %q", task.State(), task.Error)
	}

	missing, err := st.GetTask(ctx, "no-such-task")
	if err != nil || missing != nil {
		t.Fatalf("GetTask(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func testOldestQueued(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewClock()
	st := open(t, clock)

	if task, err := st.GetOldestQueued(ctx); err != nil || task != nil {
		t.Fatalf("empty queue returned %v, %v", task, err)
	}

	first := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"a"}`)
	clock.Advance(time.Millisecond)
	second := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"b"}`)
	clock.Advance(time.Millisecond)
	third := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"c"}`)

	for _, want := range []string{first, second, third} {
		task, err := st.GetOldestQueued(ctx)
		if err != nil {
			t.Fatalf("GetOldestQueued: %v", err)
		}
		if task == nil || task.ID != want {
			t.Fatalf("GetOldestQueued = %v, want %s", task, want)
		}
		if err := st.Claim(ctx, want); err != nil {
			t.Fatalf("Claim: %v", err)
		}
	}
	if task, err := st.GetOldestQueued(ctx); err != nil || task != nil {
		t.Fatalf("drained queue returned %v, %v", task, err)
	}
}

func testClaimExclusive(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewClock())
	id := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`)

	const contenders = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		claimed int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Claim(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrAlreadyClaimed):
				claimed++
			default:
				t.Errorf("Claim: unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || claimed != contenders-1 {
		t.Fatalf("wins=%d claimed=%d; want exactly one winner", wins, claimed)
	}

	if err := st.Claim(ctx, "no-such-task"); !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("Claim(missing) = %v, want ErrTaskNotFound", err)
	}
}

func testCompleteRequiresInFlight(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewClock())
	id := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`)

	if err := st.Complete(ctx, id, ""); !errors.Is(err, store.ErrNotInFlight) {
		t.Fatalf("Complete(queued) = %v, want ErrNotInFlight", err)
	}
	if err := st.Claim(ctx, id); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := st.Complete(ctx, id, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := st.Complete(ctx, id, "late failure"); !errors.Is(err, store.ErrNotInFlight) {
		t.Fatalf("Complete(done) = %v, want ErrNotInFlight", err)
	}
	if task := mustGet(t, st, id); task.State() != tasks.StateSucceeded {
		t.Fatalf("second Complete changed state to %s", task.State())
	}
	if err := st.Complete(ctx, "no-such-task", ""); !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("Complete(missing) = %v, want ErrTaskNotFound", err)
	}
}

func testRequeue(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewClock()
	st := open(t, clock)

	done := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"done"}`)
	clock.Advance(time.Millisecond)
	interrupted := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"interrupted"}`)
	clock.Advance(time.Millisecond)
	queued := mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"queued"}`)

	for _, id := range []string{done, interrupted} {
		if err := st.Claim(ctx, id); err != nil {
			t.Fatalf("Claim: %v", err)
		}
	}
	if err := st.Complete(ctx, done, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	n, err := st.RequeueInterrupted(ctx)
	if err != nil {
		t.Fatalf("RequeueInterrupted: %v", err)
	}
	if n != 1 {
		t.Fatalf("requeued %d tasks, want 1", n)
	}
	if task := mustGet(t, st, interrupted); task.State() != tasks.StateQueued {
		t.Fatalf("interrupted task state = %s, want queued", task.State())
	}
	if task := mustGet(t, st, done); task.State() != tasks.StateSucceeded {
		t.Fatalf("completed task state = %s, want succeeded", task.State())
	}

	next, err := st.GetOldestQueued(ctx)
	if err != nil {
		t.Fatalf("GetOldestQueued: %v", err)
	}
	if next == nil || next.ID != interrupted {
		t.Fatalf("next = %v, want interrupted task %s ahead of %s", next, interrupted, queued)
	}

	if n, err := st.RequeueInterrupted(ctx); err != nil || n != 0 {
		t.Fatalf("second RequeueInterrupted = %d, %v; want 0, nil", n, err)
	}
}

func testListTasks(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewClock()
	st := open(t, clock)

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, mustCreate(t, st, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`))
		clock.Advance(time.Second)
	}
	if err := st.Claim(ctx, ids[0]); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := st.Complete(ctx, ids[0], "boom"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := st.Claim(ctx, ids[1]); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	all, err := st.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 4 || all[0].ID != ids[3] || all[3].ID != ids[0] {
		t.Fatalf("ListTasks order wrong: got %d tasks", len(all))
	}

	cases := map[tasks.State][]string{
		tasks.StateQueued:    {ids[3], ids[2]},
		tasks.StateRunning:   {ids[1]},
		tasks.StateFailed:    {ids[0]},
		tasks.StateSucceeded: nil,
	}
	for state, want := range cases {
		got, err := st.ListTasks(ctx, store.TaskFilter{State: state})
		if err != nil {
			t.Fatalf("ListTasks(%s): %v", state, err)
		}
		if len(got) != len(want) {
			t.Fatalf("ListTasks(%s) returned %d tasks, want %d", state, len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i] {
				t.Fatalf("ListTasks(%s)[%d] = %s, want %s", state, i, got[i].ID, want[i])
			}
		}
	}

	limited, err := st.ListTasks(ctx, store.TaskFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListTasks(limit): %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("ListTasks(limit 2) returned %d", len(limited))
	}

	if _, err := st.ListTasks(ctx, store.TaskFilter{State: "paused"}); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func testElectionRoundTrip(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewClock())

	if rec, err := st.GetElection(ctx, "missing"); err != nil || rec != nil {
		t.Fatalf("GetElection(missing) = %v, %v", rec, err)
	}

	e := testsupport.GeneralElection()
	testsupport.MustPutElection(t, st, e, testsupport.Settings("VxDefaultBallot", []string{"en"}, []string{"en", "es-US"}))

	rec, err := st.GetElection(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetElection: %v", err)
	}
	if rec == nil || rec.Election.Title != e.Title || len(rec.Election.Precincts) != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	var ids []string
	for _, s := range rec.BallotStyles {
		ids = append(ids, s.ID)
	}
	want := []string{"1_en", "1_en_es-US", "2_en", "2_en_es-US"}
	if len(ids) != len(want) {
		t.Fatalf("ballot styles = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ballot styles = %v, want %v", ids, want)
		}
	}

	// Styles follow geography edits without being stored.
	e.Precincts[0].DistrictIDs = []string{"D1", "D2"}
	testsupport.MustPutElection(t, st, e, testsupport.Settings("VxDefaultBallot"))
	rec, err = st.GetElection(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetElection: %v", err)
	}
	if len(rec.BallotStyles) != 2 || rec.BallotStyles[0].Members[0].PrecinctID != "P1" {
		t.Fatalf("styles after edit = %+v", rec.BallotStyles)
	}
	if len(rec.BallotStyles[0].DistrictIDs) != 2 {
		t.Fatalf("first style should cover D1 and D2, got %v", rec.BallotStyles[0].DistrictIDs)
	}

	bad := testsupport.GeneralElection()
	bad.Contests[0].DistrictID = "nowhere"
	if err := st.PutElection(ctx, bad, testsupport.Settings("VxDefaultBallot")); err == nil {
		t.Fatal("expected validation error for unknown district")
	}
}

func testExportMetadata(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewClock()
	st := open(t, clock)

	if err := st.SetTestDecksURL(ctx, "missing", "file:///x.zip", ""); !errors.Is(err, store.ErrElectionNotFound) {
		t.Fatalf("SetTestDecksURL(missing) = %v", err)
	}
	if err := st.SetExportMetadata(ctx, "missing", election.ExportMetadata{}); !errors.Is(err, store.ErrElectionNotFound) {
		t.Fatalf("SetExportMetadata(missing) = %v", err)
	}

	e := testsupport.GeneralElection()
	testsupport.MustPutElection(t, st, e, testsupport.Settings("VxDefaultBallot"))

	if err := st.SetTestDecksURL(ctx, e.ID, "file:///decks.zip", "file:///tally.json"); err != nil {
		t.Fatalf("SetTestDecksURL: %v", err)
	}
	exported := clock.Now()
	meta := election.ExportMetadata{
		ElectionPackageURL: "file:///pkg.zip",
		BallotHash:         "abc123",
		OfficialBallotsURL: "file:///official.zip",
		SampleBallotsURL:   "file:///sample.zip",
		TestBallotsURL:     "file:///test.zip",
		ExportedAt:         &exported,
	}
	if err := st.SetExportMetadata(ctx, e.ID, meta); err != nil {
		t.Fatalf("SetExportMetadata: %v", err)
	}

	// Re-importing the definition keeps export metadata.
	testsupport.MustPutElection(t, st, e, testsupport.Settings("VxDefaultBallot"))

	rec, err := st.GetElection(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetElection: %v", err)
	}
	got := rec.Export
	if got.ElectionPackageURL != meta.ElectionPackageURL || got.BallotHash != meta.BallotHash {
		t.Fatalf("export metadata = %+v", got)
	}
	if got.TestDecksURL != "file:///decks.zip" || got.TestDecksTallyURL != "file:///tally.json" {
		t.Fatalf("test decks url lost: %+v", got)
	}
	if got.ExportedAt == nil || !got.ExportedAt.Equal(exported) {
		t.Fatalf("exported_at = %v, want %v", got.ExportedAt, exported)
	}
}

func testTranslationCache(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewClock())

	got, err := st.GetTranslations(ctx, "es-US", []string{"Mayor"})
	if err != nil || len(got) != 0 {
		t.Fatalf("empty cache returned %v, %v", got, err)
	}
	if err := st.PutTranslations(ctx, "es-US", map[string]string{"Mayor": "Alcalde", "Yes": "Sí"}); err != nil {
		t.Fatalf("PutTranslations: %v", err)
	}
	if err := st.PutTranslations(ctx, "zh-Hans", map[string]string{"Mayor": "市长"}); err != nil {
		t.Fatalf("PutTranslations: %v", err)
	}
	got, err = st.GetTranslations(ctx, "es-US", []string{"Mayor", "Yes", "No", "Mayor"})
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if len(got) != 2 || got["Mayor"] != "Alcalde" || got["Yes"] != "Sí" {
		t.Fatalf("GetTranslations = %v", got)
	}

	if err := st.PutTranslations(ctx, "es-US", map[string]string{"Mayor": "Alcaldesa"}); err != nil {
		t.Fatalf("PutTranslations overwrite: %v", err)
	}
	got, err = st.GetTranslations(ctx, "es-US", []string{"Mayor"})
	if err != nil || got["Mayor"] != "Alcaldesa" {
		t.Fatalf("overwrite not visible: %v, %v", got, err)
	}
	got, err = st.GetTranslations(ctx, "zh-Hans", []string{"Mayor"})
	if err != nil || got["Mayor"] != "市长" {
		t.Fatalf("languages must not collide: %v, %v", got, err)
	}
}

func testSpeechCache(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewClock())

	clip := []byte{0xff, 0xfb, 0x90, 0x00}
	if err := st.PutAudioClips(ctx, "en", map[string][]byte{"Vote for one": clip}); err != nil {
		t.Fatalf("PutAudioClips: %v", err)
	}
	got, err := st.GetAudioClips(ctx, "en", []string{"Vote for one", "Vote for two"})
	if err != nil {
		t.Fatalf("GetAudioClips: %v", err)
	}
	if len(got) != 1 || string(got["Vote for one"]) != string(clip) {
		t.Fatalf("GetAudioClips = %v", got)
	}
	clip[0] = 0
	got, err = st.GetAudioClips(ctx, "en", []string{"Vote for one"})
	if err != nil || got["Vote for one"][0] != 0xff {
		t.Fatalf("stored clip aliased caller buffer: %v, %v", got, err)
	}
	if got, err := st.GetAudioClips(ctx, "es-US", []string{"Vote for one"}); err != nil || len(got) != 0 {
		t.Fatalf("languages must not collide: %v, %v", got, err)
	}
}
