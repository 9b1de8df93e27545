// Package cachetier resolves keyed values through a fixed precedence of
// sources: a read-only vendored table, a durable cache, then one batched
// external fetch per language for whatever is still missing.
package cachetier

import (
	"context"
	"fmt"
)

// Request asks for one text in one language.
type Request struct {
	Text     string
	Language string
}

// Vendored is a read-only table consulted before any cache.
type Vendored[V any] interface {
	Lookup(language, text string) (V, bool)
}

// Cache is the durable memoization tier.
type Cache[V any] interface {
	Get(ctx context.Context, language string, texts []string) (map[string]V, error)
	Put(ctx context.Context, language string, entries map[string]V) error
}

// Fetcher resolves texts for one language. It must return exactly one value
// per input text, in input order.
type Fetcher[V any] func(ctx context.Context, language string, texts []string) ([]V, error)

// Resolver applies the precedence rules for values of type V.
type Resolver[V any] struct {
	Vendored Vendored[V]
	Cache    Cache[V]
	Fetch    Fetcher[V]
	// Passthrough, when set, short-circuits a request before any tier.
	Passthrough func(Request) (V, bool)
	// Cacheable, when set, decides which fetched texts may be written back.
	// Texts it rejects are never read from the cache either.
	Cacheable func(text string) bool
}

// Resolve returns one value per request in request order.
func (r *Resolver[V]) Resolve(ctx context.Context, requests []Request) ([]V, error) {
	out := make([]V, len(requests))
	resolved := make([]bool, len(requests))

	// pending[language] lists request indexes still unresolved, grouped so each
	// language gets at most one cache read and one fetch.
	var languages []string
	pending := make(map[string][]int)
	for i, req := range requests {
		if r.Passthrough != nil {
			if v, ok := r.Passthrough(req); ok {
				out[i], resolved[i] = v, true
				continue
			}
		}
		if r.Vendored != nil {
			if v, ok := r.Vendored.Lookup(req.Language, req.Text); ok {
				out[i], resolved[i] = v, true
				continue
			}
		}
		if _, seen := pending[req.Language]; !seen {
			languages = append(languages, req.Language)
		}
		pending[req.Language] = append(pending[req.Language], i)
	}

	for _, language := range languages {
		if err := r.resolveLanguage(ctx, language, requests, pending[language], out, resolved); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Resolver[V]) resolveLanguage(ctx context.Context, language string, requests []Request, indexes []int, out []V, resolved []bool) error {
	texts := uniqueTexts(requests, indexes)

	if r.Cache != nil {
		lookup := texts
		if r.Cacheable != nil {
			lookup = filter(texts, r.Cacheable)
		}
		if len(lookup) > 0 {
			hits, err := r.Cache.Get(ctx, language, lookup)
			if err != nil {
				return fmt.Errorf("read cache for %s: %w", language, err)
			}
			for _, i := range indexes {
				if v, ok := hits[requests[i].Text]; ok {
					out[i], resolved[i] = v, true
				}
			}
		}
	}

	var misses []string
	seen := make(map[string]struct{}, len(texts))
	for _, i := range indexes {
		if resolved[i] {
			continue
		}
		text := requests[i].Text
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return nil
	}
	if r.Fetch == nil {
		return fmt.Errorf("no fetcher configured for %d uncached %s texts", len(misses), language)
	}

	values, err := r.Fetch(ctx, language, misses)
	if err != nil {
		return err
	}
	if len(values) != len(misses) {
		return fmt.Errorf("fetch for %s returned %d values for %d texts", language, len(values), len(misses))
	}
	fetched := make(map[string]V, len(misses))
	for j, text := range misses {
		fetched[text] = values[j]
	}
	for _, i := range indexes {
		if !resolved[i] {
			out[i], resolved[i] = fetched[requests[i].Text], true
		}
	}

	if r.Cache == nil {
		return nil
	}
	writeBack := make(map[string]V, len(fetched))
	for text, v := range fetched {
		if r.Cacheable == nil || r.Cacheable(text) {
			writeBack[text] = v
		}
	}
	if len(writeBack) == 0 {
		return nil
	}
	if err := r.Cache.Put(ctx, language, writeBack); err != nil {
		return fmt.Errorf("write cache for %s: %w", language, err)
	}
	return nil
}

func uniqueTexts(requests []Request, indexes []int) []string {
	seen := make(map[string]struct{}, len(indexes))
	out := make([]string, 0, len(indexes))
	for _, i := range indexes {
		text := requests[i].Text
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

func filter(texts []string, keep func(string) bool) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
