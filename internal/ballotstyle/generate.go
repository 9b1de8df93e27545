package ballotstyle

import (
	"slices"
	"strconv"
	"strings"

	"ballotforge/internal/election"
)

// Input is everything ballot style derivation depends on.
type Input struct {
	Type            election.Type
	Contests        []election.Contest
	Parties         []election.Party
	Precincts       []election.Precinct
	LanguageConfigs [][]string
}

// IDFunc names a ballot style. groupIndex is 1-based; party is nil for
// nonpartisan styles. Identical arguments must always yield identical ids.
// When two parties share an abbreviation, Generate passes every party with
// its id in place of the abbreviation.
type IDFunc func(groupIndex int, party *election.Party, languages []string) (id, groupID string)

// FromElection builds the generator input for a stored election.
func FromElection(e *election.Election, languageConfigs [][]string) Input {
	return Input{
		Type:            e.Type,
		Contests:        e.Contests,
		Parties:         e.Parties,
		Precincts:       e.Precincts,
		LanguageConfigs: languageConfigs,
	}
}

// DefaultIDs yields "1_en", "1_en_es-US" for general elections and
// "1-D_en" for primaries, with group ids "1" and "1-D".
func DefaultIDs(groupIndex int, party *election.Party, languages []string) (string, string) {
	groupID := strconv.Itoa(groupIndex)
	if party != nil {
		abbrev := party.Abbrev
		if abbrev == "" {
			abbrev = party.ID
		}
		groupID += "-" + abbrev
	}
	return groupID + "_" + strings.Join(languages, "_"), groupID
}

type unit struct {
	member      election.Member
	districtIDs []string
}

type group struct {
	districtIDs []string
	members     []election.Member
}

// Generate derives ballot styles. It is pure: the same input always yields
// the same styles, ids, and member order. Precinct units (flat precincts and
// splits) with identical district sets share a group in order of first
// appearance; units with no districts get no style.
func Generate(in Input, idFn IDFunc) []election.BallotStyle {
	if idFn == nil {
		idFn = DefaultIDs
	}
	groups := groupUnits(flatten(in.Precincts))
	languageConfigs := uniqueLanguageConfigs(in.LanguageConfigs)
	if len(groups) == 0 || len(languageConfigs) == 0 {
		return nil
	}
	parties := labelParties(in.Parties)

	var styles []election.BallotStyle
	for i, g := range groups {
		index := i + 1
		if in.Type != election.TypePrimary {
			for _, langs := range languageConfigs {
				styles = append(styles, newStyle(idFn, index, nil, langs, g))
			}
			continue
		}
		for _, party := range qualifyingParties(in.Contests, parties, g) {
			for _, langs := range languageConfigs {
				styles = append(styles, newStyle(idFn, index, &party, langs, g))
			}
		}
	}
	return styles
}

// uniqueLanguageConfigs drops configurations naming the same language set as
// an earlier one; a style is keyed by the set, not by its spelling.
func uniqueLanguageConfigs(configs [][]string) [][]string {
	out := make([][]string, 0, len(configs))
	seen := make(map[string]struct{}, len(configs))
	for _, langs := range configs {
		key := strings.Join(normalizeSet(langs), "\x1f")
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, langs)
	}
	return out
}

// labelParties returns the parties with abbreviations safe to use in ids.
// When two parties resolve to the same label, every party falls back to its
// id so ids never depend on which party was declared first.
func labelParties(parties []election.Party) []election.Party {
	out := slices.Clone(parties)
	seen := make(map[string]struct{}, len(out))
	for _, p := range out {
		label := p.Abbrev
		if label == "" {
			label = p.ID
		}
		if _, ok := seen[label]; ok {
			for i := range out {
				out[i].Abbrev = out[i].ID
			}
			return out
		}
		seen[label] = struct{}{}
	}
	return out
}

func flatten(precincts []election.Precinct) []unit {
	units := make([]unit, 0, len(precincts))
	for _, p := range precincts {
		if !p.HasSplits() {
			units = append(units, unit{
				member:      election.Member{PrecinctID: p.ID},
				districtIDs: normalizeSet(p.DistrictIDs),
			})
			continue
		}
		for _, s := range p.Splits {
			units = append(units, unit{
				member:      election.Member{PrecinctID: p.ID, SplitID: s.ID},
				districtIDs: normalizeSet(s.DistrictIDs),
			})
		}
	}
	return units
}

func groupUnits(units []unit) []*group {
	var ordered []*group
	byKey := make(map[string]*group)
	for _, u := range units {
		if len(u.districtIDs) == 0 {
			continue
		}
		key := strings.Join(u.districtIDs, "\x1f")
		g, ok := byKey[key]
		if !ok {
			g = &group{districtIDs: u.districtIDs}
			byKey[key] = g
			ordered = append(ordered, g)
		}
		g.members = append(g.members, u.member)
	}
	return ordered
}

// qualifyingParties keeps the election's party order so ids stay stable.
func qualifyingParties(contests []election.Contest, parties []election.Party, g *group) []election.Party {
	var out []election.Party
	for _, party := range parties {
		for _, c := range contests {
			if c.Type != election.ContestCandidate || c.PartyID != party.ID {
				continue
			}
			if _, found := slices.BinarySearch(g.districtIDs, c.DistrictID); found {
				out = append(out, party)
				break
			}
		}
	}
	return out
}

func newStyle(idFn IDFunc, index int, party *election.Party, langs []string, g *group) election.BallotStyle {
	languages := slices.Clone(langs)
	id, groupID := idFn(index, party, languages)
	style := election.BallotStyle{
		ID:          id,
		GroupID:     groupID,
		DistrictIDs: slices.Clone(g.districtIDs),
		Languages:   languages,
		Members:     slices.Clone(g.members),
	}
	if party != nil {
		style.PartyID = party.ID
	}
	return style
}

func normalizeSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
