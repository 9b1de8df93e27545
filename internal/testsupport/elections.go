package testsupport

import "ballotforge/internal/election"

// GeneralElection returns a small general election: three precincts, one of
// them split, two districts, a candidate contest and a ballot measure.
// P1 and the first split of P3 share district D1 and therefore a style.
func GeneralElection() election.Election {
	return election.Election{
		ID:     "general-2026",
		Title:  "General Election",
		Type:   election.TypeGeneral,
		Date:   "2026-11-03",
		State:  "New Hampshire",
		County: election.County{ID: "county-1", Name: "Sample County"},
		Districts: []election.District{
			{ID: "D1", Name: "District 1"},
			{ID: "D2", Name: "District 2"},
		},
		Precincts: []election.Precinct{
			{ID: "P1", Name: "Precinct 1", DistrictIDs: []string{"D1"}},
			{ID: "P2", Name: "Precinct 2", DistrictIDs: []string{"D1", "D2"}},
			{
				ID:   "P3",
				Name: "Precinct 3",
				Splits: []election.PrecinctSplit{
					{ID: "P3-A", Name: "Precinct 3 A", DistrictIDs: []string{"D1"}},
					{ID: "P3-B", Name: "Precinct 3 B", DistrictIDs: nil},
				},
			},
		},
		Parties: []election.Party{
			{ID: "dem", Name: "Democrat", FullName: "Democratic Party", Abbrev: "D"},
			{ID: "rep", Name: "Republican", FullName: "Republican Party", Abbrev: "R"},
		},
		Contests: []election.Contest{
			{
				ID:         "mayor",
				Type:       election.ContestCandidate,
				Title:      "Mayor",
				DistrictID: "D1",
				Seats:      1,
				Candidates: []election.Candidate{
					{ID: "alice", Name: "Alice Adams", PartyIDs: []string{"dem"}},
					{ID: "bob", Name: "Bob Brown", PartyIDs: []string{"rep"}},
				},
				AllowWriteIns: true,
			},
			{
				ID:          "measure-1",
				Type:        election.ContestYesNo,
				Title:       "Library Bond",
				DistrictID:  "D2",
				Description: "Shall the town issue bonds for a new library?",
				YesOption:   election.YesNoOption{ID: "measure-1-yes", Label: "Yes"},
				NoOption:    election.YesNoOption{ID: "measure-1-no", Label: "No"},
			},
		},
	}
}

// PrimaryElection returns a primary where only the Democratic party has a
// partisan contest in D2.
func PrimaryElection() election.Election {
	e := GeneralElection()
	e.ID = "primary-2026"
	e.Title = "Primary Election"
	e.Type = election.TypePrimary
	e.Contests = []election.Contest{
		{
			ID:         "dem-senate",
			Type:       election.ContestCandidate,
			Title:      "State Senate",
			DistrictID: "D2",
			PartyID:    "dem",
			Seats:      1,
			Candidates: []election.Candidate{
				{ID: "carol", Name: "Carol Chen", PartyIDs: []string{"dem"}},
				{ID: "dan", Name: "Dan Diaz", PartyIDs: []string{"dem"}},
			},
		},
		{
			ID:          "measure-2",
			Type:        election.ContestYesNo,
			Title:       "Road Repair",
			DistrictID:  "D1",
			Description: "Shall the town repair Main Street?",
			YesOption:   election.YesNoOption{ID: "measure-2-yes", Label: "Yes"},
			NoOption:    election.YesNoOption{ID: "measure-2-no", Label: "No"},
		},
	}
	return e
}

// Settings returns export settings for the given template and language sets.
func Settings(templateID string, languageConfigs ...[]string) election.Settings {
	if len(languageConfigs) == 0 {
		languageConfigs = election.DefaultLanguageConfigs()
	}
	return election.Settings{
		BallotTemplateID: templateID,
		LanguageConfigs:  languageConfigs,
	}
}
