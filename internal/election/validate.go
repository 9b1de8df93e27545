package election

import (
	"fmt"
	"strings"

	"ballotforge/internal/services"
)

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "election", "validate", fmt.Sprintf(format, args...), nil)
}

// Validate checks referential integrity of the election definition.
func (e *Election) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return invalid("election id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return invalid("election title is required")
	}
	switch e.Type {
	case TypeGeneral, TypePrimary:
	default:
		return invalid("election type must be %q or %q, got %q", TypeGeneral, TypePrimary, e.Type)
	}

	districts := make(map[string]struct{}, len(e.Districts))
	for _, d := range e.Districts {
		if err := addUnique(districts, "district", d.ID); err != nil {
			return err
		}
	}
	parties := make(map[string]struct{}, len(e.Parties))
	for _, p := range e.Parties {
		if err := addUnique(parties, "party", p.ID); err != nil {
			return err
		}
	}

	precincts := make(map[string]struct{}, len(e.Precincts))
	for _, p := range e.Precincts {
		if err := addUnique(precincts, "precinct", p.ID); err != nil {
			return err
		}
		if p.HasSplits() && len(p.DistrictIDs) > 0 {
			return invalid("precinct %s must define either districtIds or splits, not both", p.ID)
		}
		if err := checkDistrictRefs(districts, "precinct "+p.ID, p.DistrictIDs); err != nil {
			return err
		}
		splits := make(map[string]struct{}, len(p.Splits))
		for _, s := range p.Splits {
			if err := addUnique(splits, "split of precinct "+p.ID, s.ID); err != nil {
				return err
			}
			if err := checkDistrictRefs(districts, "split "+s.ID, s.DistrictIDs); err != nil {
				return err
			}
		}
	}

	contests := make(map[string]struct{}, len(e.Contests))
	for _, c := range e.Contests {
		if err := addUnique(contests, "contest", c.ID); err != nil {
			return err
		}
		if _, ok := districts[c.DistrictID]; !ok {
			return invalid("contest %s references unknown district %q", c.ID, c.DistrictID)
		}
		switch c.Type {
		case ContestCandidate:
			if c.PartyID != "" {
				if _, ok := parties[c.PartyID]; !ok {
					return invalid("contest %s references unknown party %q", c.ID, c.PartyID)
				}
			}
			if c.Seats <= 0 {
				return invalid("contest %s must have at least one seat", c.ID)
			}
			if len(c.Candidates) == 0 && !c.AllowWriteIns {
				return invalid("contest %s has no candidates and does not allow write-ins", c.ID)
			}
			for _, cand := range c.Candidates {
				for _, pid := range cand.PartyIDs {
					if _, ok := parties[pid]; !ok {
						return invalid("candidate %s references unknown party %q", cand.ID, pid)
					}
				}
			}
		case ContestYesNo:
			if c.PartyID != "" {
				return invalid("yes/no contest %s cannot be partisan", c.ID)
			}
			if c.YesOption.ID == "" || c.NoOption.ID == "" {
				return invalid("yes/no contest %s must define both options", c.ID)
			}
		default:
			return invalid("contest %s has unsupported type %q", c.ID, c.Type)
		}
	}
	return nil
}

// Validate checks export settings.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.BallotTemplateID) == "" {
		return invalid("ballot template id is required")
	}
	for i, cfg := range s.LanguageConfigs {
		if len(cfg) == 0 {
			return invalid("language config %d is empty", i)
		}
		for _, lang := range cfg {
			if strings.TrimSpace(lang) == "" {
				return invalid("language config %d contains a blank language", i)
			}
		}
	}
	return nil
}

func addUnique(seen map[string]struct{}, kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("%s id is required", kind)
	}
	if _, ok := seen[id]; ok {
		return invalid("duplicate %s id %q", kind, id)
	}
	seen[id] = struct{}{}
	return nil
}

func checkDistrictRefs(districts map[string]struct{}, owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := districts[id]; !ok {
			return invalid("%s references unknown district %q", owner, id)
		}
	}
	return nil
}
