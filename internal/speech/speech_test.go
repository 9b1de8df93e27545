package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballotforge/internal/cachetier"
	"ballotforge/internal/config"
	"ballotforge/internal/speech"
	"ballotforge/internal/store/memory"
)

type fakeSpeechAPI struct {
	mu     sync.Mutex
	inputs [][]string
	server *httptest.Server
}

func newFakeSpeechAPI(t *testing.T) *fakeSpeechAPI {
	t.Helper()
	api := &fakeSpeechAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text:synthesizeBatch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "k" {
			t.Errorf("missing api key header")
		}
		var body struct {
			Inputs   []string `json:"inputs"`
			Language string   `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		api.mu.Lock()
		api.inputs = append(api.inputs, body.Inputs)
		api.mu.Unlock()
		clips := make([][]byte, len(body.Inputs))
		for i, in := range body.Inputs {
			clips[i] = []byte(body.Language + ":" + in)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"audioContents": clips})
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeSpeechAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inputs)
}

func newSynth(api *fakeSpeechAPI, st *memory.Store) *speech.Synthesizer {
	client := speech.NewCloudClient(config.Speech{APIKey: "k", BaseURL: api.server.URL, Voice: "neutral", TimeoutSeconds: 5})
	return speech.New(st, client, speech.DefaultMaxCacheableBytes)
}

func TestSynthesizeCachesShortText(t *testing.T) {
	api := newFakeSpeechAPI(t)
	st := memory.New()
	synth := newSynth(api, st)
	ctx := context.Background()

	requests := []cachetier.Request{
		{Text: "Mayor", Language: "en"},
		{Text: "Alcalde", Language: "es-US"},
		{Text: "Mayor", Language: "en"},
	}
	clips, err := synth.Synthesize(ctx, requests)
	require.NoError(t, err)
	assert.Equal(t, []string{"en:Mayor", "es-US:Alcalde", "en:Mayor"},
		[]string{string(clips[0]), string(clips[1]), string(clips[2])})
	assert.Equal(t, 2, api.calls())

	_, err = synth.Synthesize(ctx, requests)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls(), "second run should be served from cache")
}

func TestSynthesizeOversizedTextEveryTime(t *testing.T) {
	api := newFakeSpeechAPI(t)
	st := memory.New()
	synth := newSynth(api, st)
	ctx := context.Background()

	long := strings.Repeat("a", speech.DefaultMaxCacheableBytes+1)
	edge := strings.Repeat("b", speech.DefaultMaxCacheableBytes)
	requests := []cachetier.Request{{Text: long, Language: "en"}, {Text: edge, Language: "en"}}

	_, err := synth.Synthesize(ctx, requests)
	require.NoError(t, err)
	_, err = synth.Synthesize(ctx, requests)
	require.NoError(t, err)

	require.Equal(t, 2, api.calls())
	assert.Equal(t, []string{long, edge}, api.inputs[0])
	assert.Equal(t, []string{long}, api.inputs[1])

	cached, err := st.GetAudioClips(ctx, "en", []string{long, edge})
	require.NoError(t, err)
	assert.NotContains(t, cached, long)
	assert.Contains(t, cached, edge)
}

func TestSynthesizeMultibyteLimitCountsBytes(t *testing.T) {
	api := newFakeSpeechAPI(t)
	st := memory.New()
	synth := newSynth(api, st)

	// 1000 three-byte runes is 3000 bytes, over the limit despite 1000 characters.
	text := strings.Repeat("选", 1000)
	_, err := synth.Synthesize(context.Background(), []cachetier.Request{{Text: text, Language: "zh-Hans"}})
	require.NoError(t, err)
	cached, err := st.GetAudioClips(context.Background(), "zh-Hans", []string{text})
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestCloudClientRequiresKey(t *testing.T) {
	client := speech.NewCloudClient(config.Speech{BaseURL: "http://127.0.0.1:9"})
	_, err := client.Synthesize(context.Background(), []string{"Mayor"}, "en")
	assert.Error(t, err)
}
