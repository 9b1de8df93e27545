package testsupport

import (
	"context"
	"testing"

	"ballotforge/internal/config"
	"ballotforge/internal/election"
	"ballotforge/internal/store/sqlite"
)

// MustOpenStore opens a SQLite store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	st, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// ElectionPutter is the subset of the store MustPutElection needs.
type ElectionPutter interface {
	PutElection(ctx context.Context, e election.Election, settings election.Settings) error
}

// MustPutElection stores e with settings or fails the test.
func MustPutElection(t testing.TB, st ElectionPutter, e election.Election, settings election.Settings) {
	t.Helper()

	if err := st.PutElection(context.Background(), e, settings); err != nil {
		t.Fatalf("PutElection(%s): %v", e.ID, err)
	}
}
