package translation

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"ballotforge/internal/cachetier"
	"ballotforge/internal/store"
)

// Translator resolves translations through the vendored, cached, and cloud
// tiers.
type Translator struct {
	resolver *cachetier.Resolver[string]
}

type storeCache struct {
	store store.TranslationCache
}

func (c storeCache) Get(ctx context.Context, language string, texts []string) (map[string]string, error) {
	return c.store.GetTranslations(ctx, language, texts)
}

func (c storeCache) Put(ctx context.Context, language string, entries map[string]string) error {
	return c.store.PutTranslations(ctx, language, entries)
}

// New wires a translator. A nil dictionary disables the vendored tier.
func New(dict *Dictionary, cache store.TranslationCache, client Client) *Translator {
	r := &cachetier.Resolver[string]{
		Passthrough: func(req cachetier.Request) (string, bool) {
			return req.Text, IsEnglish(req.Language)
		},
	}
	if dict != nil {
		r.Vendored = dict
	}
	if cache != nil {
		r.Cache = storeCache{store: cache}
	}
	if client != nil {
		r.Fetch = func(ctx context.Context, language string, texts []string) ([]string, error) {
			return client.Translate(ctx, texts, language)
		}
	}
	return &Translator{resolver: r}
}

// Translate returns one translation per request, in request order.
func (t *Translator) Translate(ctx context.Context, requests []cachetier.Request) ([]string, error) {
	normalized := make([]cachetier.Request, len(requests))
	for i, req := range requests {
		normalized[i] = cachetier.Request{Text: norm.NFC.String(req.Text), Language: req.Language}
	}
	return t.resolver.Resolve(ctx, normalized)
}

// TranslateAll translates texts into a single language.
func (t *Translator) TranslateAll(ctx context.Context, texts []string, language string) ([]string, error) {
	requests := make([]cachetier.Request, len(texts))
	for i, text := range texts {
		requests[i] = cachetier.Request{Text: text, Language: language}
	}
	return t.Translate(ctx, requests)
}
