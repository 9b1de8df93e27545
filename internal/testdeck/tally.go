package testdeck

import (
	"slices"

	"ballotforge/internal/election"
	"ballotforge/internal/render"
)

// OptionCount is the expected vote count of one candidate or yes/no option.
type OptionCount struct {
	OptionID string `json:"optionId"`
	Votes    int    `json:"votes"`
}

// ContestTally is the expected result of one contest. Ballots counts the
// deck ballots the contest appeared on.
type ContestTally struct {
	ContestID  string        `json:"contestId"`
	Ballots    int           `json:"ballots"`
	Undervotes int           `json:"undervotes"`
	Options    []OptionCount `json:"options"`
}

// Report is tally-report.json.
type Report struct {
	ElectionID  string         `json:"electionId"`
	BallotHash  string         `json:"ballotHash,omitempty"`
	BallotCount int            `json:"ballotCount"`
	Contests    []ContestTally `json:"contests"`
}

// Tally counts the marks of props. Contests and options keep election order;
// options with no votes are listed with zero.
func Tally(rec *election.Record, props []render.Prop) Report {
	e := &rec.Election
	styles := make(map[string]election.BallotStyle, len(rec.BallotStyles))
	for _, s := range rec.BallotStyles {
		styles[s.ID] = s
	}

	report := Report{ElectionID: e.ID, BallotCount: len(props)}
	for _, c := range e.Contests {
		contest := ContestTally{ContestID: c.ID, Options: optionsOf(c)}
		for _, p := range props {
			style, ok := styles[p.BallotStyleID]
			if !ok || !onBallot(e, style, c) {
				continue
			}
			contest.Ballots++
			marks := p.Votes[c.ID]
			if len(marks) == 0 {
				contest.Undervotes++
				continue
			}
			for _, mark := range marks {
				if i := slices.IndexFunc(contest.Options, func(o OptionCount) bool { return o.OptionID == mark }); i >= 0 {
					contest.Options[i].Votes++
				}
			}
		}
		report.Contests = append(report.Contests, contest)
	}
	return report
}

func optionsOf(c election.Contest) []OptionCount {
	switch c.Type {
	case election.ContestCandidate:
		out := make([]OptionCount, 0, len(c.Candidates))
		for _, cand := range c.Candidates {
			out = append(out, OptionCount{OptionID: cand.ID})
		}
		return out
	case election.ContestYesNo:
		return []OptionCount{{OptionID: c.YesOption.ID}, {OptionID: c.NoOption.ID}}
	default:
		return nil
	}
}

func onBallot(e *election.Election, style election.BallotStyle, c election.Contest) bool {
	return slices.ContainsFunc(e.ContestsForStyle(style), func(x election.Contest) bool { return x.ID == c.ID })
}
