package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"ballotforge/internal/store"
	"ballotforge/internal/store/sqlite"
	"ballotforge/internal/store/storetest"
	"ballotforge/internal/tasks"
	"ballotforge/internal/testsupport"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock *storetest.Clock) store.Store {
		path := filepath.Join(t.TempDir(), "contract.db")
		st, err := sqlite.OpenPath(path, sqlite.WithClock(clock.Now))
		if err != nil {
			t.Fatalf("OpenPath: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestOpenUsesConfigDataDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if st.Path() != cfg.DatabasePath() {
		t.Fatalf("Path() = %q, want %q", st.Path(), cfg.DatabasePath())
	}
}

func TestQueuedTasksSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	st, err := sqlite.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	id, err := st.CreateTask(ctx, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := st.Claim(ctx, id); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := sqlite.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	n, err := reopened.RequeueInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RequeueInterrupted = %d, %v; want 1", n, err)
	}
	next, err := reopened.GetOldestQueued(ctx)
	if err != nil || next == nil || next.ID != id {
		t.Fatalf("GetOldestQueued = %v, %v; want %s", next, err, id)
	}
}

func TestSchemaMismatchIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	st, err := sqlite.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := sqlite.OpenPath(path); !errors.Is(err, sqlite.ErrSchemaMismatch) {
		t.Fatalf("OpenPath = %v, want ErrSchemaMismatch", err)
	}
}

func TestCorruptTaskTimestampIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	ctx := context.Background()
	st, err := sqlite.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	id, err := st.CreateTask(ctx, tasks.NameGenerateTestDecks, `{"electionId":"e1"}`)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	_ = st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE background_tasks SET started_at = 'garbage' WHERE id = ?", id); err != nil {
		t.Fatalf("corrupt started_at: %v", err)
	}
	_ = db.Close()

	reopened, err := sqlite.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetTask(ctx, id); err == nil || !strings.Contains(err.Error(), "parse started_at") {
		t.Fatalf("GetTask error = %v, want started_at parse error", err)
	}
	if _, err := reopened.ListTasks(ctx, store.TaskFilter{}); err == nil {
		t.Fatal("ListTasks succeeded over a corrupt row")
	}
}

func TestTranslationLookupSpansChunks(t *testing.T) {
	st, err := sqlite.OpenPath(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	entries := make(map[string]string, 1200)
	texts := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		key := fmt.Sprintf("text-%04d", i)
		entries[key] = "translated-" + key
		texts = append(texts, key)
	}
	if err := st.PutTranslations(ctx, "es-US", entries); err != nil {
		t.Fatalf("PutTranslations: %v", err)
	}
	got, err := st.GetTranslations(ctx, "es-US", texts)
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d translations, want %d", len(got), len(entries))
	}
}
