package uistrings

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"ballotforge/internal/cachetier"
	"ballotforge/internal/election"
)

//go:embed app_strings.yaml
var appStringsYAML []byte

// Entry is one UI string in English. Untranslatable entries (candidate
// names) keep their English text in every language.
type Entry struct {
	Key          string
	Text         string
	Translatable bool
}

// Catalog maps language -> key -> text.
type Catalog map[string]map[string]string

// Translator resolves translation requests in order.
type Translator interface {
	Translate(ctx context.Context, requests []cachetier.Request) ([]string, error)
}

type appStrings struct {
	App       map[string]string            `yaml:"app"`
	Templates map[string]map[string]string `yaml:"templates"`
}

func loadAppStrings() (appStrings, error) {
	var out appStrings
	if err := yaml.Unmarshal(appStringsYAML, &out); err != nil {
		return out, fmt.Errorf("decode app strings: %w", err)
	}
	return out, nil
}

// AppEntries returns the application strings plus the extra strings of
// templateID, sorted by key.
func AppEntries(templateID string) ([]Entry, error) {
	src, err := loadAppStrings()
	if err != nil {
		return nil, err
	}
	merged := maps.Clone(src.App)
	for id, extra := range src.Templates {
		if strings.EqualFold(id, templateID) {
			maps.Copy(merged, extra)
		}
	}
	entries := make([]Entry, 0, len(merged))
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		entries = append(entries, Entry{Key: key, Text: merged[key], Translatable: true})
	}
	return entries, nil
}

// ElectionEntries returns the strings derived from the election definition in
// definition order. These are also the strings that get voiced.
func ElectionEntries(e *election.Election) []Entry {
	var entries []Entry
	add := func(key, text string, translatable bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		entries = append(entries, Entry{Key: key, Text: text, Translatable: translatable})
	}

	add("electionTitle", e.Title, true)
	add("countyName", e.County.Name, true)
	add("stateName", e.State, true)
	for _, d := range e.Districts {
		add("districtName."+d.ID, d.Name, true)
	}
	for _, p := range e.Precincts {
		add("precinctName."+p.ID, p.Name, true)
		// Split ids are only unique within their precinct.
		for _, s := range p.Splits {
			splitKey := p.ID + "." + s.ID
			add("precinctSplitName."+splitKey, s.Name, true)
			add("electionTitleOverride."+splitKey, s.ElectionTitleOverride, true)
			add("clerkSignatureCaption."+splitKey, s.ClerkSignatureCaption, true)
		}
	}
	for _, party := range e.Parties {
		add("partyName."+party.ID, party.Name, true)
		add("partyFullName."+party.ID, party.FullName, true)
	}
	for _, c := range e.Contests {
		add("contestTitle."+c.ID, c.Title, true)
		switch c.Type {
		case election.ContestCandidate:
			for _, cand := range c.Candidates {
				add("candidateName."+cand.ID, cand.Name, false)
			}
		case election.ContestYesNo:
			add("contestDescription."+c.ID, c.Description, true)
			add("contestOptionLabel."+c.YesOption.ID, c.YesOption.Label, true)
			add("contestOptionLabel."+c.NoOption.ID, c.NoOption.Label, true)
		}
	}
	return entries
}

// Build translates entries into every language with a single Translate call.
func Build(ctx context.Context, tr Translator, entries []Entry, languages []string) (Catalog, error) {
	catalog := make(Catalog, len(languages))
	var (
		requests []cachetier.Request
		targets  []struct{ lang, key string }
	)
	for _, lang := range languages {
		if _, ok := catalog[lang]; ok {
			continue
		}
		table := make(map[string]string, len(entries))
		catalog[lang] = table
		for _, entry := range entries {
			if !entry.Translatable {
				table[entry.Key] = entry.Text
				continue
			}
			requests = append(requests, cachetier.Request{Text: entry.Text, Language: lang})
			targets = append(targets, struct{ lang, key string }{lang, entry.Key})
		}
	}
	if len(requests) == 0 {
		return catalog, nil
	}
	translated, err := tr.Translate(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("translate ui strings: %w", err)
	}
	for i, target := range targets {
		catalog[target.lang][target.key] = translated[i]
	}
	return catalog, nil
}

// ForElection builds the full catalog a render call needs: application
// strings for templateID plus the election strings, in every language of
// languageConfigs.
func ForElection(ctx context.Context, tr Translator, templateID string, e *election.Election, languageConfigs [][]string) (Catalog, error) {
	entries, err := AppEntries(templateID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, ElectionEntries(e)...)
	return Build(ctx, tr, entries, Languages(languageConfigs))
}

// Languages returns the catalog's languages sorted.
func (c Catalog) Languages() []string {
	return slices.Sorted(maps.Keys(c))
}

// Merge copies every entry of other into c.
func (c Catalog) Merge(other Catalog) {
	for lang, table := range other {
		if c[lang] == nil {
			c[lang] = make(map[string]string, len(table))
		}
		maps.Copy(c[lang], table)
	}
}

// Languages flattens language configurations into the distinct languages in
// first-seen order.
func Languages(configs [][]string) []string {
	var out []string
	for _, cfg := range configs {
		for _, lang := range cfg {
			if !slices.Contains(out, lang) {
				out = append(out, lang)
			}
		}
	}
	return out
}
