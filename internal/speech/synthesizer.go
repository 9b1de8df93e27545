package speech

import (
	"context"

	"ballotforge/internal/cachetier"
	"ballotforge/internal/store"
)

// DefaultMaxCacheableBytes is the largest UTF-8 text whose audio is cached.
const DefaultMaxCacheableBytes = 2704

// Synthesizer resolves audio through the durable cache and the cloud API.
type Synthesizer struct {
	resolver *cachetier.Resolver[[]byte]
}

type storeCache struct {
	store store.SpeechCache
}

func (c storeCache) Get(ctx context.Context, language string, texts []string) (map[string][]byte, error) {
	return c.store.GetAudioClips(ctx, language, texts)
}

func (c storeCache) Put(ctx context.Context, language string, entries map[string][]byte) error {
	return c.store.PutAudioClips(ctx, language, entries)
}

// New wires a synthesizer. maxCacheableBytes <= 0 uses the default limit.
func New(cache store.SpeechCache, client Client, maxCacheableBytes int) *Synthesizer {
	if maxCacheableBytes <= 0 {
		maxCacheableBytes = DefaultMaxCacheableBytes
	}
	r := &cachetier.Resolver[[]byte]{
		Cacheable: func(text string) bool {
			return len(text) <= maxCacheableBytes
		},
	}
	if cache != nil {
		r.Cache = storeCache{store: cache}
	}
	if client != nil {
		r.Fetch = func(ctx context.Context, language string, texts []string) ([][]byte, error) {
			return client.Synthesize(ctx, texts, language)
		}
	}
	return &Synthesizer{resolver: r}
}

// Synthesize returns one clip per request, in request order.
func (s *Synthesizer) Synthesize(ctx context.Context, requests []cachetier.Request) ([][]byte, error) {
	return s.resolver.Resolve(ctx, requests)
}
