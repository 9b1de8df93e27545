package store

import (
	"github.com/google/uuid"

	"ballotforge/internal/ballotstyle"
	"ballotforge/internal/election"
)

// Hydrate fills in the derived parts of a record loaded by an adapter.
func Hydrate(rec *election.Record) *election.Record {
	if rec == nil {
		return nil
	}
	if len(rec.Settings.LanguageConfigs) == 0 {
		rec.Settings.LanguageConfigs = election.DefaultLanguageConfigs()
	}
	rec.BallotStyles = ballotstyle.Generate(
		ballotstyle.FromElection(&rec.Election, rec.Settings.LanguageConfigs),
		ballotstyle.DefaultIDs,
	)
	return rec
}

// NewTaskID returns a time-ordered task identifier so ids sort with creation time.
func NewTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
