package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"ballotforge/internal/bundle"
	"ballotforge/internal/cachetier"
	"ballotforge/internal/election"
	"ballotforge/internal/uistrings"
)

// AudioID names the clip for text spoken in lang. Equal inputs share a clip.
func AudioID(lang, text string) string {
	return bundle.Hash([]byte(lang + "|" + text))
}

// audioPlan maps every voiced key to its clip, and lists the clips to
// synthesize once each in first-seen order.
type audioPlan struct {
	ids      map[string]map[string]string
	requests []cachetier.Request
	clipIDs  []string
}

func planAudio(e *election.Election, catalog uistrings.Catalog, languages []string) audioPlan {
	plan := audioPlan{ids: make(map[string]map[string]string, len(languages))}
	seen := make(map[string]struct{})
	entries := uistrings.ElectionEntries(e)
	for _, lang := range languages {
		table := make(map[string]string, len(entries))
		plan.ids[lang] = table
		for _, entry := range entries {
			text := entry.Text
			if translated, ok := catalog[lang][entry.Key]; ok {
				text = translated
			}
			id := AudioID(lang, text)
			table[entry.Key] = id
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			plan.requests = append(plan.requests, cachetier.Request{Text: text, Language: lang})
			plan.clipIDs = append(plan.clipIDs, id)
		}
	}
	return plan
}

type audioClip struct {
	ID           string `json:"id"`
	LanguageCode string `json:"languageCode"`
	DataBase64   string `json:"dataBase64"`
}

// encode renders audio_ids.json and audio_clips.jsonl.
func (p audioPlan) encode(clips [][]byte) (ids []byte, lines []byte, err error) {
	if len(clips) != len(p.requests) {
		return nil, nil, fmt.Errorf("synthesized %d clips for %d requests", len(clips), len(p.requests))
	}
	ids, err = json.MarshalIndent(p.ids, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode audio ids: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, clip := range clips {
		if err := enc.Encode(audioClip{
			ID:           p.clipIDs[i],
			LanguageCode: p.requests[i].Language,
			DataBase64:   base64.StdEncoding.EncodeToString(clip),
		}); err != nil {
			return nil, nil, fmt.Errorf("encode audio clip %s: %w", p.clipIDs[i], err)
		}
	}
	return ids, buf.Bytes(), nil
}
