package testdeck

import (
	"fmt"
	"slices"

	"ballotforge/internal/election"
	"ballotforge/internal/render"
)

// Votes marks ballot k: candidate contests get candidate k mod n, yes/no
// contests alternate yes and no. Contests without options stay blank.
func Votes(contests []election.Contest, k int) map[string][]string {
	votes := make(map[string][]string, len(contests))
	for _, c := range contests {
		switch c.Type {
		case election.ContestCandidate:
			if len(c.Candidates) == 0 {
				continue
			}
			votes[c.ID] = []string{c.Candidates[k%len(c.Candidates)].ID}
		case election.ContestYesNo:
			if k%2 == 0 {
				votes[c.ID] = []string{c.YesOption.ID}
			} else {
				votes[c.ID] = []string{c.NoOption.ID}
			}
		}
	}
	return votes
}

// Props derives one marked precinct test ballot per member of every style in
// the first language configuration.
func Props(rec *election.Record) []render.Prop {
	e := &rec.Election
	configs := rec.Settings.LanguageConfigs
	if len(configs) == 0 {
		configs = election.DefaultLanguageConfigs()
	}
	paperSize := e.Layout.PaperSizeOrDefault()

	var props []render.Prop
	for _, style := range rec.BallotStyles {
		if !slices.Equal(style.Languages, configs[0]) {
			continue
		}
		contests := e.ContestsForStyle(style)
		for _, member := range style.Members {
			props = append(props, render.Prop{
				BallotStyleID: style.ID,
				PrecinctID:    member.PrecinctID,
				SplitID:       member.SplitID,
				BallotType:    render.BallotTypePrecinct,
				BallotMode:    render.BallotModeTest,
				Languages:     style.Languages,
				PaperSize:     paperSize,
				Overrides:     render.OverridesFor(e, member),
				Votes:         Votes(contests, len(props)),
			})
		}
	}
	return props
}

func deckName(k int, p render.Prop) string {
	unit := p.PrecinctID
	if p.SplitID != "" {
		unit += "_" + p.SplitID
	}
	return fmt.Sprintf("decks/%04d-%s-%s.pdf", k+1, unit, p.BallotStyleID)
}
