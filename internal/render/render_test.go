package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotforge/internal/config"
	"ballotforge/internal/services"
	"ballotforge/internal/services/jsonapi"
	"ballotforge/internal/testsupport"
)

func newServer(t *testing.T, hashFor func(batch int) string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		n := int(calls.Add(1))
		var body wireRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		docs := make([][]byte, len(body.Props))
		for i, p := range body.Props {
			docs[i] = []byte(fmt.Sprintf("%%PDF %s %s %s", p.BallotStyleID, p.BallotType, p.BallotMode))
		}
		_ = json.NewEncoder(w).Encode(wireResponse{
			Documents:          docs,
			ElectionDefinition: ElectionDefinition{Data: []byte(`{"id":"general-2026"}`), Hash: hashFor(n)},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func props(n int) []Prop {
	out := make([]Prop, n)
	for i := range out {
		out[i] = Prop{
			BallotStyleID: fmt.Sprintf("style-%02d", i),
			PrecinctID:    "P1",
			BallotType:    BallotTypePrecinct,
			BallotMode:    BallotModeOfficial,
			Languages:     []string{"en"},
			PaperSize:     "letter",
		}
	}
	return out
}

func TestRenderBatchesPreserveOrder(t *testing.T) {
	server, calls := newServer(t, func(int) string { return "hash-1" })
	r := NewHTTPRenderer(config.Renderer{BaseURL: server.URL, BatchSize: 3, Concurrency: 2, TimeoutSeconds: 5})

	e := testsupport.GeneralElection()
	result, err := r.Render(context.Background(), Request{TemplateID: "VxDefaultBallot", Election: e, Props: props(10)})
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
	require.Len(t, result.Documents, 10)
	for i, doc := range result.Documents {
		assert.Equal(t, fmt.Sprintf("%%PDF style-%02d precinct official", i), string(doc))
	}
	assert.Equal(t, "hash-1", result.ElectionDefinition.Hash)
}

func TestRenderRejectsHashMismatch(t *testing.T) {
	server, _ := newServer(t, func(n int) string { return fmt.Sprintf("hash-%d", n) })
	r := NewHTTPRenderer(config.Renderer{BaseURL: server.URL, BatchSize: 1, Concurrency: 1, TimeoutSeconds: 5})

	_, err := r.Render(context.Background(), Request{TemplateID: "t", Props: props(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrExternalTool))
}

func TestRenderFailsWholeCallOnBatchError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unknown template"}`))
			return
		}
		var body wireRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(wireResponse{Documents: make([][]byte, len(body.Props))})
	}))
	defer server.Close()

	r := NewHTTPRenderer(config.Renderer{BaseURL: server.URL, BatchSize: 1, Concurrency: 1, TimeoutSeconds: 5},
		jsonapi.WithRetryAttempts(1))
	_, err := r.Render(context.Background(), Request{TemplateID: "t", Props: props(3)})
	require.Error(t, err)
	var statusErr *jsonapi.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestRenderRequiresProps(t *testing.T) {
	r := NewHTTPRenderer(config.Renderer{BaseURL: "http://127.0.0.1:9"})
	_, err := r.Render(context.Background(), Request{})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestModesAndTypes(t *testing.T) {
	assert.Len(t, BallotModes(), 3)
	assert.Len(t, BallotTypes(), 2)
	assert.True(t, Overrides{}.IsZero())
	assert.False(t, Overrides{ElectionTitle: "x"}.IsZero())
}
