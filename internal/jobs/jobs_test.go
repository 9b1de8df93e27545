package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"ballotforge/internal/tasks"
	"ballotforge/internal/testsupport"
	"ballotforge/internal/worker"
)

func newRenderServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		var req struct {
			Props []json.RawMessage `json:"props"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		docs := make([][]byte, len(req.Props))
		for i := range docs {
			docs[i] = []byte("%PDF-1.7")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents":          docs,
			"electionDefinition": map[string]any{"data": []byte(`{}`), "hash": "abc123"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWorkerRunsExportAndTestDecksEndToEnd(t *testing.T) {
	var renders atomic.Int32
	srv := newRenderServer(t, &renders)
	cfg := testsupport.NewConfig(t, testsupport.WithRenderer(srv.URL), testsupport.WithGrayscale())
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustPutElection(t, st, testsupport.GeneralElection(), testsupport.Settings("NhBallot"))

	ctx := context.Background()
	exportID, err := tasks.Enqueue(ctx, st, tasks.GenerateElectionPackage{ElectionID: "general-2026"})
	if err != nil {
		t.Fatalf("Enqueue export: %v", err)
	}
	decksID, err := tasks.Enqueue(ctx, st, tasks.GenerateTestDecks{ElectionID: "general-2026"})
	if err != nil {
		t.Fatalf("Enqueue decks: %v", err)
	}

	w := worker.New(st, FromConfig(cfg, st, nil))
	for range 2 {
		if processed, err := w.RunOnce(ctx); err != nil || !processed {
			t.Fatalf("RunOnce = %v, %v", processed, err)
		}
	}

	for _, id := range []string{exportID, decksID} {
		task, err := st.GetTask(ctx, id)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if task.State() != tasks.StateSucceeded {
			t.Fatalf("task %s %s: %s", task.Name, task.State(), task.Error)
		}
	}
	if renders.Load() != 2 {
		t.Fatalf("expected one render call per task, got %d", renders.Load())
	}

	rec, err := st.GetElection(ctx, "general-2026")
	if err != nil {
		t.Fatalf("GetElection: %v", err)
	}
	if rec.Export.BallotHash != "abc123" {
		t.Fatalf("ballot hash = %q", rec.Export.BallotHash)
	}
	for _, url := range []string{
		rec.Export.ElectionPackageURL,
		rec.Export.OfficialBallotsURL,
		rec.Export.TestDecksURL,
		rec.Export.TestDecksTallyURL,
	} {
		path := strings.TrimPrefix(url, "file://")
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("artifact %s missing: %v", url, err)
		}
	}
}

func TestExportFailsWithoutTranslationKey(t *testing.T) {
	var renders atomic.Int32
	srv := newRenderServer(t, &renders)
	cfg := testsupport.NewConfig(t, testsupport.WithRenderer(srv.URL), testsupport.WithGrayscale())
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustPutElection(t, st, testsupport.GeneralElection(),
		testsupport.Settings("NhBallot", []string{"en", "fr"}))

	ctx := context.Background()
	id, err := tasks.Enqueue(ctx, st, tasks.GenerateElectionPackage{ElectionID: "general-2026"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := worker.New(st, FromConfig(cfg, st, nil)).RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	task, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.State() != tasks.StateFailed || !strings.Contains(task.Error, "translation.api_key is not set") {
		t.Fatalf("unexpected task %s: %q", task.State(), task.Error)
	}
	if renders.Load() != 0 {
		t.Fatal("renderer must not be called after a failed step")
	}
}
