package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ballotforge/internal/election"
	"ballotforge/internal/store/sqlite"
)

// electionFile is the import document: a definition plus its export settings.
type electionFile struct {
	Election election.Election `json:"election"`
	Settings election.Settings `json:"settings"`
}

func newElectionCommand(ctx *commandContext) *cobra.Command {
	electionCmd := &cobra.Command{
		Use:   "election",
		Short: "Import and inspect elections",
	}

	electionCmd.AddCommand(newElectionImportCommand(ctx))
	electionCmd.AddCommand(newElectionStylesCommand(ctx))
	electionCmd.AddCommand(newElectionShowCommand(ctx))

	return electionCmd
}

func readElectionFile(path string) (electionFile, error) {
	var doc electionFile
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read election file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return doc, fmt.Errorf("parse election file %s: %w", path, err)
	}
	if len(doc.Settings.LanguageConfigs) == 0 {
		doc.Settings.LanguageConfigs = election.DefaultLanguageConfigs()
	}
	return doc, nil
}

func newElectionImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create or replace an election from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readElectionFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *sqlite.Store) error {
				if err := st.PutElection(cmd.Context(), doc.Election, doc.Settings); err != nil {
					return err
				}
				rec, err := st.GetElection(cmd.Context(), doc.Election.ID)
				if err != nil {
					return err
				}
				styles := 0
				if rec != nil {
					styles = len(rec.BallotStyles)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported election %s (%d precincts, %d ballot styles)\n",
					doc.Election.ID, len(doc.Election.Precincts), styles)
				return nil
			})
		},
	}
}

func newElectionStylesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "styles ID",
		Short: "List the ballot styles derived for an election",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *sqlite.Store) error {
				rec, err := st.GetElection(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("election %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, rec.BallotStyles)
				}
				if len(rec.BallotStyles) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No ballot styles")
					return nil
				}
				rows := make([][]string, 0, len(rec.BallotStyles))
				for _, style := range rec.BallotStyles {
					rows = append(rows, []string{
						style.ID,
						style.GroupID,
						dashIfEmpty(style.PartyID),
						strings.Join(style.Languages, ", "),
						strings.Join(style.DistrictIDs, ", "),
						formatMembers(style.Members),
						strconv.Itoa(len(rec.Election.ContestsForStyle(style))),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Style", "Group", "Party", "Languages", "Districts", "Precincts", "Contests"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newElectionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an election with its latest export artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *sqlite.Store) error {
				rec, err := st.GetElection(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("election %s not found", args[0])
				}
				return writeJSON(cmd, rec)
			})
		},
	}
}

func formatMembers(members []election.Member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		if m.SplitID != "" {
			parts = append(parts, m.PrecinctID+"/"+m.SplitID)
			continue
		}
		parts = append(parts, m.PrecinctID)
	}
	return strings.Join(parts, ", ")
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
