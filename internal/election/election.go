package election

import (
	"encoding/json"
	"slices"
	"time"
)

// Type distinguishes general elections from partisan primaries.
type Type string

const (
	TypeGeneral Type = "general"
	TypePrimary Type = "primary"
)

// ContestType is the closed set of contest kinds.
type ContestType string

const (
	ContestCandidate ContestType = "candidate"
	ContestYesNo     ContestType = "yesno"
)

// County identifies the jurisdiction running the election.
type County struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// District is a geographic area that contests are scoped to.
type District struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Precinct is either a flat precinct owning DistrictIDs or a precinct divided
// into Splits, each with its own district assignment. Exactly one of the two
// forms is populated.
type Precinct struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DistrictIDs []string        `json:"districtIds,omitempty"`
	Splits      []PrecinctSplit `json:"splits,omitempty"`
}

// HasSplits reports whether the precinct uses the split form.
func (p Precinct) HasSplits() bool {
	return len(p.Splits) > 0
}

// PrecinctSplit is a sub-division of a precinct. An empty DistrictIDs list
// assigns the split to no ballot style. The override fields carry state
// specific ballot header variations.
type PrecinctSplit struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	DistrictIDs           []string `json:"districtIds"`
	ElectionTitleOverride string   `json:"electionTitleOverride,omitempty"`
	ElectionSealOverride  string   `json:"electionSealOverride,omitempty"`
	ClerkSignatureImage   string   `json:"clerkSignatureImage,omitempty"`
	ClerkSignatureCaption string   `json:"clerkSignatureCaption,omitempty"`
}

// Party is a political party participating in the election.
type Party struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Abbrev   string `json:"abbrev"`
}

// Candidate is a choice in a candidate contest.
type Candidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	PartyIDs []string `json:"partyIds,omitempty"`
}

// YesNoOption is one side of a ballot measure.
type YesNoOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Contest is tagged by Type: candidate contests use Seats and Candidates,
// yes/no contests use Description and the two options.
type Contest struct {
	ID            string      `json:"id"`
	Type          ContestType `json:"type"`
	Title         string      `json:"title"`
	DistrictID    string      `json:"districtId"`
	PartyID       string      `json:"partyId,omitempty"`
	Seats         int         `json:"seats,omitempty"`
	AllowWriteIns bool        `json:"allowWriteIns,omitempty"`
	Candidates    []Candidate `json:"candidates,omitempty"`
	Description   string      `json:"description,omitempty"`
	YesOption     YesNoOption `json:"yesOption,omitzero"`
	NoOption      YesNoOption `json:"noOption,omitzero"`
}

// Election is the persisted election definition.
type Election struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      Type       `json:"type"`
	Date      string     `json:"date"`
	State     string     `json:"state"`
	County    County     `json:"county"`
	Seal      string     `json:"seal,omitempty"`
	Districts []District `json:"districts"`
	Precincts []Precinct `json:"precincts"`
	Parties   []Party    `json:"parties"`
	Contests  []Contest  `json:"contests"`
	Layout    Layout     `json:"ballotLayout,omitzero"`
}

// Layout carries the physical ballot options passed to the renderer.
type Layout struct {
	PaperSize string `json:"paperSize,omitempty"`
}

// PaperSizeOrDefault returns the configured paper size, or letter.
func (l Layout) PaperSizeOrDefault() string {
	if l.PaperSize == "" {
		return "letter"
	}
	return l.PaperSize
}

// Settings are the per-election export choices.
type Settings struct {
	BallotTemplateID string          `json:"ballotTemplateId"`
	LanguageConfigs  [][]string      `json:"languageConfigs"`
	SystemSettings   json.RawMessage `json:"systemSettings,omitempty"`
}

// Member is one precinct (or precinct split) assigned to a ballot style.
type Member struct {
	PrecinctID string `json:"precinctId"`
	SplitID    string `json:"splitId,omitempty"`
}

// BallotStyle is derived from geography on every read and never persisted.
type BallotStyle struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"groupId"`
	DistrictIDs []string `json:"districtIds"`
	Languages   []string `json:"languages"`
	PartyID     string   `json:"partyId,omitempty"`
	Members     []Member `json:"members"`
}

// ExportMetadata records the artifacts produced by the latest export runs.
type ExportMetadata struct {
	ElectionPackageURL string     `json:"electionPackageUrl,omitempty"`
	BallotHash         string     `json:"ballotHash,omitempty"`
	OfficialBallotsURL string     `json:"officialBallotsUrl,omitempty"`
	SampleBallotsURL   string     `json:"sampleBallotsUrl,omitempty"`
	TestBallotsURL     string     `json:"testBallotsUrl,omitempty"`
	TestDecksURL       string     `json:"testDecksUrl,omitempty"`
	TestDecksTallyURL  string     `json:"testDecksTallyUrl,omitempty"`
	ExportedAt         *time.Time `json:"exportedAt,omitempty"`
}

// Record is what the store returns for an election: the definition, its
// settings, ballot styles recomputed at read time, and export metadata.
type Record struct {
	Election     Election       `json:"election"`
	Settings     Settings       `json:"settings"`
	BallotStyles []BallotStyle  `json:"ballotStyles,omitempty"`
	Export       ExportMetadata `json:"export"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// DefaultLanguageConfigs is used when settings specify none.
func DefaultLanguageConfigs() [][]string {
	return [][]string{{"en"}}
}

// District returns the district with the given id.
func (e *Election) District(id string) (District, bool) {
	for _, d := range e.Districts {
		if d.ID == id {
			return d, true
		}
	}
	return District{}, false
}

// Precinct returns the precinct with the given id.
func (e *Election) Precinct(id string) (Precinct, bool) {
	for _, p := range e.Precincts {
		if p.ID == id {
			return p, true
		}
	}
	return Precinct{}, false
}

// Split returns the split of a precinct, if both exist.
func (e *Election) Split(precinctID, splitID string) (PrecinctSplit, bool) {
	p, ok := e.Precinct(precinctID)
	if !ok {
		return PrecinctSplit{}, false
	}
	for _, s := range p.Splits {
		if s.ID == splitID {
			return s, true
		}
	}
	return PrecinctSplit{}, false
}

// Party returns the party with the given id.
func (e *Election) Party(id string) (Party, bool) {
	for _, p := range e.Parties {
		if p.ID == id {
			return p, true
		}
	}
	return Party{}, false
}

// ContestsForStyle lists the contests that appear on a ballot of the given
// style, in election order. Partisan contests only appear on the ballot of
// their own party.
func (e *Election) ContestsForStyle(style BallotStyle) []Contest {
	out := make([]Contest, 0, len(e.Contests))
	for _, c := range e.Contests {
		if !slices.Contains(style.DistrictIDs, c.DistrictID) {
			continue
		}
		if c.PartyID != "" && c.PartyID != style.PartyID {
			continue
		}
		out = append(out, c)
	}
	return out
}
