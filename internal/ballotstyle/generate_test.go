package ballotstyle_test

import (
	"reflect"
	"testing"

	"ballotforge/internal/ballotstyle"
	"ballotforge/internal/election"
)

func members(style election.BallotStyle) []string {
	out := make([]string, 0, len(style.Members))
	for _, m := range style.Members {
		if m.SplitID != "" {
			out = append(out, m.PrecinctID+"/"+m.SplitID)
			continue
		}
		out = append(out, m.PrecinctID)
	}
	return out
}

func TestGeneralElectionSharedDistrictsAcrossLanguages(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypeGeneral,
		Precincts: []election.Precinct{
			{ID: "P1", DistrictIDs: []string{"D1"}},
			{ID: "P2", DistrictIDs: []string{"D1"}},
		},
		LanguageConfigs: [][]string{{"en"}, {"en", "es"}},
	}

	styles := ballotstyle.Generate(in, nil)
	if len(styles) != 2 {
		t.Fatalf("expected 2 ballot styles, got %d: %+v", len(styles), styles)
	}
	for _, s := range styles {
		if got := members(s); !reflect.DeepEqual(got, []string{"P1", "P2"}) {
			t.Fatalf("expected both precincts in style %s, got %v", s.ID, got)
		}
	}
	if styles[0].ID != "1_en" || styles[1].ID != "1_en_es" {
		t.Fatalf("unexpected ids: %s %s", styles[0].ID, styles[1].ID)
	}
	if styles[0].GroupID != styles[1].GroupID {
		t.Fatalf("expected shared group id, got %s and %s", styles[0].GroupID, styles[1].GroupID)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	in := ballotstyle.Input{
		Type:    election.TypePrimary,
		Parties: []election.Party{{ID: "dem", Abbrev: "D"}, {ID: "rep", Abbrev: "R"}},
		Contests: []election.Contest{
			{ID: "c1", Type: election.ContestCandidate, DistrictID: "D1", PartyID: "dem"},
			{ID: "c2", Type: election.ContestCandidate, DistrictID: "D2", PartyID: "rep"},
		},
		Precincts: []election.Precinct{
			{ID: "P1", DistrictIDs: []string{"D2", "D1"}},
			{ID: "P2", Splits: []election.PrecinctSplit{
				{ID: "S1", DistrictIDs: []string{"D1"}},
				{ID: "S2", DistrictIDs: []string{"D1", "D2"}},
			}},
		},
		LanguageConfigs: [][]string{{"en"}, {"es-US"}},
	}

	first := ballotstyle.Generate(in, nil)
	second := ballotstyle.Generate(in, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output on repeated runs:\n%+v\n%+v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected styles")
	}
}

func TestIdenticalDistrictSetsGroupRegardlessOfOrder(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypeGeneral,
		Precincts: []election.Precinct{
			{ID: "Zeta", DistrictIDs: []string{"D2", "D1"}},
			{ID: "Alpha", Splits: []election.PrecinctSplit{
				{ID: "A1", DistrictIDs: []string{"D1", "D2", "D1"}},
				{ID: "A2", DistrictIDs: []string{"D3"}},
			}},
		},
		LanguageConfigs: [][]string{{"en"}},
	}

	styles := ballotstyle.Generate(in, nil)
	if len(styles) != 2 {
		t.Fatalf("expected 2 styles, got %+v", styles)
	}
	if got := members(styles[0]); !reflect.DeepEqual(got, []string{"Zeta", "Alpha/A1"}) {
		t.Fatalf("expected split and flat precinct to share a style, got %v", got)
	}
	if !reflect.DeepEqual(styles[0].DistrictIDs, []string{"D1", "D2"}) {
		t.Fatalf("expected sorted unique districts, got %v", styles[0].DistrictIDs)
	}
	if got := members(styles[1]); !reflect.DeepEqual(got, []string{"Alpha/A2"}) {
		t.Fatalf("unexpected second group: %v", got)
	}
}

func TestEmptyDistrictSetsNeverAppear(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypeGeneral,
		Precincts: []election.Precinct{
			{ID: "P1"},
			{ID: "P2", Splits: []election.PrecinctSplit{
				{ID: "S1"},
				{ID: "S2", DistrictIDs: []string{"D1"}},
			}},
		},
		LanguageConfigs: [][]string{{"en"}},
	}

	styles := ballotstyle.Generate(in, nil)
	if len(styles) != 1 {
		t.Fatalf("expected 1 style, got %+v", styles)
	}
	if got := members(styles[0]); !reflect.DeepEqual(got, []string{"P2/S2"}) {
		t.Fatalf("expected only the split with districts, got %v", got)
	}
}

func TestZeroPrecinctsYieldsZeroStyles(t *testing.T) {
	styles := ballotstyle.Generate(ballotstyle.Input{Type: election.TypeGeneral, LanguageConfigs: [][]string{{"en"}}}, nil)
	if len(styles) != 0 {
		t.Fatalf("expected no styles, got %+v", styles)
	}
}

func TestPrimaryPartyStyleRequiresContestInGroup(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypePrimary,
		Parties: []election.Party{
			{ID: "dem", Abbrev: "D"},
			{ID: "rep", Abbrev: "R"},
			{ID: "grn", Abbrev: "G"},
		},
		Contests: []election.Contest{
			{ID: "gov-d", Type: election.ContestCandidate, DistrictID: "STATE", PartyID: "dem"},
			{ID: "council-r", Type: election.ContestCandidate, DistrictID: "WARD1", PartyID: "rep"},
			{ID: "measure", Type: election.ContestYesNo, DistrictID: "WARD2"},
			{ID: "board", Type: election.ContestCandidate, DistrictID: "WARD2"},
		},
		Precincts: []election.Precinct{
			{ID: "P1", DistrictIDs: []string{"STATE", "WARD1"}},
			{ID: "P2", DistrictIDs: []string{"STATE"}},
			{ID: "P3", DistrictIDs: []string{"WARD2"}},
		},
		LanguageConfigs: [][]string{{"en"}},
	}

	styles := ballotstyle.Generate(in, nil)
	type key struct{ group, party string }
	got := map[key]bool{}
	for _, s := range styles {
		got[key{s.GroupID, s.PartyID}] = true
	}
	want := map[key]bool{
		{"1-D", "dem"}: true,
		{"1-R", "rep"}: true,
		{"2-D", "dem"}: true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected primary styles: got %v want %v", got, want)
	}
	if styles[0].ID != "1-D_en" {
		t.Fatalf("expected party order to follow election parties, got %s", styles[0].ID)
	}
}

func TestCustomIDFunc(t *testing.T) {
	in := ballotstyle.Input{
		Type:            election.TypeGeneral,
		Precincts:       []election.Precinct{{ID: "P1", DistrictIDs: []string{"D1"}}},
		LanguageConfigs: [][]string{{"en", "zh-Hans"}},
	}
	calls := 0
	styles := ballotstyle.Generate(in, func(index int, party *election.Party, langs []string) (string, string) {
		calls++
		if party != nil {
			t.Fatalf("expected nil party for general election")
		}
		return "style", "group"
	})
	if calls != 1 || styles[0].ID != "style" || styles[0].GroupID != "group" {
		t.Fatalf("unexpected custom id result: calls=%d styles=%+v", calls, styles)
	}
}

func TestGeneratedStylesDoNotAliasInput(t *testing.T) {
	langs := [][]string{{"en"}}
	in := ballotstyle.Input{
		Type:            election.TypeGeneral,
		Precincts:       []election.Precinct{{ID: "P1", DistrictIDs: []string{"D1"}}},
		LanguageConfigs: langs,
	}
	styles := ballotstyle.Generate(in, nil)
	styles[0].Languages[0] = "fr"
	if langs[0][0] != "en" {
		t.Fatal("expected generated styles to copy language slices")
	}
}

func TestSharedPartyAbbreviationsFallBackToPartyIDs(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypePrimary,
		Parties: []election.Party{
			{ID: "dem", Abbrev: "D"},
			{ID: "dfl", Abbrev: "D"},
		},
		Contests: []election.Contest{
			{ID: "gov-dem", Type: election.ContestCandidate, DistrictID: "D1", PartyID: "dem"},
			{ID: "gov-dfl", Type: election.ContestCandidate, DistrictID: "D1", PartyID: "dfl"},
		},
		Precincts: []election.Precinct{
			{ID: "P1", DistrictIDs: []string{"D1"}},
			{ID: "P2", DistrictIDs: []string{"D1", "D2"}},
		},
		LanguageConfigs: [][]string{{"en"}},
	}

	styles := ballotstyle.Generate(in, nil)
	var ids []string
	for _, s := range styles {
		ids = append(ids, s.ID)
	}
	want := []string{"1-dem_en", "1-dfl_en", "2-dem_en", "2-dfl_en"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if styles[0].PartyID != "dem" || styles[1].PartyID != "dfl" {
		t.Fatalf("unexpected party ids: %s %s", styles[0].PartyID, styles[1].PartyID)
	}
}

func TestDuplicateLanguageConfigsYieldOneStyle(t *testing.T) {
	in := ballotstyle.Input{
		Type: election.TypeGeneral,
		Precincts: []election.Precinct{
			{ID: "P1", DistrictIDs: []string{"D1"}},
			{ID: "P2", DistrictIDs: []string{"D2"}},
		},
		LanguageConfigs: [][]string{{"en"}, {"en", "es-US"}, {"en"}, {"es-US", "en"}},
	}

	styles := ballotstyle.Generate(in, nil)
	var ids []string
	for _, s := range styles {
		ids = append(ids, s.ID)
	}
	want := []string{"1_en", "1_en_es-US", "2_en", "2_en_es-US"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}
