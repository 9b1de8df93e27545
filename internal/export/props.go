package export

import (
	"ballotforge/internal/election"
	"ballotforge/internal/render"
)

// Props derives one render prop per ballot style, member, ballot type, and
// ballot mode, in that nesting order.
func Props(rec *election.Record) []render.Prop {
	e := &rec.Election
	paperSize := e.Layout.PaperSizeOrDefault()
	var props []render.Prop
	for _, style := range rec.BallotStyles {
		for _, member := range style.Members {
			overrides := render.OverridesFor(e, member)
			for _, ballotType := range render.BallotTypes() {
				for _, mode := range render.BallotModes() {
					props = append(props, render.Prop{
						BallotStyleID: style.ID,
						PrecinctID:    member.PrecinctID,
						SplitID:       member.SplitID,
						BallotType:    ballotType,
						BallotMode:    mode,
						Languages:     style.Languages,
						PaperSize:     paperSize,
						Overrides:     overrides,
					})
				}
			}
		}
	}
	return props
}

// documentName is unique within one ballot mode.
func documentName(p render.Prop) string {
	unit := p.PrecinctID
	if p.SplitID != "" {
		unit += "_" + p.SplitID
	}
	return string(p.BallotType) + "/" + unit + "-" + p.BallotStyleID + ".pdf"
}
