package testdeck

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotforge/internal/bundle"
	"ballotforge/internal/cachetier"
	"ballotforge/internal/filestore"
	"ballotforge/internal/render"
	"ballotforge/internal/services"
	"ballotforge/internal/store/memory"
	"ballotforge/internal/tasks"
	"ballotforge/internal/testsupport"
)

type echoTranslator struct{ languages []string }

func (e *echoTranslator) Translate(_ context.Context, requests []cachetier.Request) ([]string, error) {
	out := make([]string, len(requests))
	for i, r := range requests {
		e.languages = append(e.languages, r.Language)
		out[i] = r.Text
	}
	return out, nil
}

type stubRenderer struct {
	props []render.Prop
}

func (s *stubRenderer) Render(_ context.Context, req render.Request) (*render.Result, error) {
	s.props = req.Props
	docs := make([][]byte, len(req.Props))
	for i, p := range req.Props {
		docs[i] = []byte("%PDF " + p.BallotStyleID)
	}
	return &render.Result{Documents: docs, ElectionDefinition: render.ElectionDefinition{Hash: "deck-hash"}}, nil
}

func TestRunUploadsDeckAndTally(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	testsupport.MustPutElection(t, st, testsupport.GeneralElection(),
		testsupport.Settings("NhBallot", []string{"en"}, []string{"en", "es-US"}))
	files := filestore.New("mem://localhost/" + t.Name())
	renderer := &stubRenderer{}
	tr := &echoTranslator{}

	g := New(Deps{Store: st, Translator: tr, Renderer: renderer, Files: files})
	require.NoError(t, g.Run(ctx, tasks.GenerateTestDecks{ElectionID: "general-2026"}))

	// Only the first language configuration is rendered.
	require.Len(t, renderer.props, 3)
	for _, p := range renderer.props {
		assert.Equal(t, render.BallotModeTest, p.BallotMode)
		assert.Equal(t, render.BallotTypePrecinct, p.BallotType)
		assert.Equal(t, []string{"en"}, p.Languages)
	}
	assert.NotContains(t, tr.languages, "es-US")

	rec, err := st.GetElection(ctx, "general-2026")
	require.NoError(t, err)
	assert.Contains(t, rec.Export.TestDecksURL, "/general-2026/test-decks-")
	assert.Contains(t, rec.Export.TestDecksTallyURL, "/general-2026/tally-report-")

	data, err := files.ReadFile(ctx, rec.Export.TestDecksURL)
	require.NoError(t, err)
	entries, err := bundle.Read(data)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"decks/0001-P1-1_en.pdf",
		"decks/0002-P3_P3-A-1_en.pdf",
		"decks/0003-P2-2_en.pdf",
		"tally-report.json",
	}, names)

	raw, err := files.ReadFile(ctx, rec.Export.TestDecksTallyURL)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "deck-hash", report.BallotHash)
	assert.Equal(t, 3, report.BallotCount)
	require.Len(t, report.Contests, 2)
	assert.Equal(t, ContestTally{
		ContestID: "mayor",
		Ballots:   3,
		Options:   []OptionCount{{OptionID: "alice", Votes: 2}, {OptionID: "bob", Votes: 1}},
	}, report.Contests[0])
	assert.Equal(t, ContestTally{
		ContestID: "measure-1",
		Ballots:   1,
		Options:   []OptionCount{{OptionID: "measure-1-yes", Votes: 1}, {OptionID: "measure-1-no", Votes: 0}},
	}, report.Contests[1])
}

func TestRunMissingElection(t *testing.T) {
	g := New(Deps{Store: memory.New(), Translator: &echoTranslator{}, Renderer: &stubRenderer{}, Files: filestore.New("mem://localhost/" + t.Name())})
	err := g.Run(context.Background(), tasks.GenerateTestDecks{ElectionID: "missing"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestVotesCycle(t *testing.T) {
	contests := testsupport.GeneralElection().Contests
	for k, want := range []map[string][]string{
		{"mayor": {"alice"}, "measure-1": {"measure-1-yes"}},
		{"mayor": {"bob"}, "measure-1": {"measure-1-no"}},
		{"mayor": {"alice"}, "measure-1": {"measure-1-yes"}},
	} {
		assert.Equal(t, want, Votes(contests, k), "ballot %d", k)
	}
}

func TestTallyCountsUndervotes(t *testing.T) {
	st := memory.New()
	testsupport.MustPutElection(t, st, testsupport.GeneralElection(), testsupport.Settings("NhBallot"))
	rec, err := st.GetElection(context.Background(), "general-2026")
	require.NoError(t, err)

	props := Props(rec)
	props[0].Votes = nil
	report := Tally(rec, props)
	assert.Equal(t, 1, report.Contests[0].Undervotes)
	assert.Equal(t, []OptionCount{{OptionID: "alice", Votes: 1}, {OptionID: "bob", Votes: 1}}, report.Contests[0].Options)
}
