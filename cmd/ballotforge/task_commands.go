package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ballotforge/internal/store"
	"ballotforge/internal/store/sqlite"
	"ballotforge/internal/tasks"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Enqueue and inspect background tasks",
	}

	taskCmd.AddCommand(newTaskEnqueueExportCommand(ctx))
	taskCmd.AddCommand(newTaskEnqueueTestDecksCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))

	return taskCmd
}

func newTaskEnqueueExportCommand(ctx *commandContext) *cobra.Command {
	var (
		electionID string
		audio      bool
		qaBuild    bool
	)
	cmd := &cobra.Command{
		Use:   "enqueue-export",
		Short: "Queue an election package export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, ctx, tasks.GenerateElectionPackage{
				ElectionID:           strings.TrimSpace(electionID),
				ShouldExportAudio:    audio,
				ShouldTriggerQABuild: qaBuild,
			})
		},
	}
	cmd.Flags().StringVar(&electionID, "election", "", "Election id")
	cmd.Flags().BoolVar(&audio, "audio", false, "Synthesize audio for the package")
	cmd.Flags().BoolVar(&qaBuild, "qa-build", false, "Trigger a QA build after the export")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}

func newTaskEnqueueTestDecksCommand(ctx *commandContext) *cobra.Command {
	var electionID string
	cmd := &cobra.Command{
		Use:   "enqueue-test-decks",
		Short: "Queue test deck generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd, ctx, tasks.GenerateTestDecks{ElectionID: strings.TrimSpace(electionID)})
		},
	}
	cmd.Flags().StringVar(&electionID, "election", "", "Election id")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}

func enqueue(cmd *cobra.Command, ctx *commandContext, p tasks.Payload) error {
	return ctx.withStore(func(st *sqlite.Store) error {
		if err := p.Validate(); err != nil {
			return err
		}
		// Fail fast on typos; the worker would fail the task anyway.
		electionID := p.TargetElection()
		rec, err := st.GetElection(cmd.Context(), electionID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("election %q not found (import it with `ballotforge election import`)", electionID)
		}
		id, err := tasks.Enqueue(cmd.Context(), st, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %s task %s\n", p.TaskName(), id)
		return nil
	})
}

// parseStateFilter accepts "done" as an alias for succeeded.
func parseStateFilter(value string) (tasks.State, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "queued":
		return tasks.StateQueued, nil
	case "running":
		return tasks.StateRunning, nil
	case "done", "succeeded":
		return tasks.StateSucceeded, nil
	case "failed":
		return tasks.StateFailed, nil
	default:
		return "", fmt.Errorf("invalid state %q (want queued, running, done, or failed)", value)
	}
}

type taskJSON struct {
	ID          string      `json:"id"`
	Name        tasks.Name  `json:"name"`
	State       tasks.State `json:"state"`
	Payload     string      `json:"payload"`
	CreatedAt   time.Time   `json:"createdAt"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func toTaskJSON(t *tasks.Task) taskJSON {
	return taskJSON{
		ID:          t.ID,
		Name:        t.Name,
		State:       t.State(),
		Payload:     t.Payload,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		Error:       t.Error,
	}
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var (
		state  string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filterState, err := parseStateFilter(state)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return ctx.withStore(func(st *sqlite.Store) error {
				list, err := st.ListTasks(cmd.Context(), store.TaskFilter{State: filterState, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					out := make([]taskJSON, 0, len(list))
					for _, t := range list {
						out = append(out, toTaskJSON(t))
					}
					return writeJSON(cmd, out)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Task", "State", "Created", "Duration", "Error"},
					buildTaskRows(list, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Filter by state (queued, running, done, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of tasks (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func buildTaskRows(list []*tasks.Task, now time.Time) [][]string {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{
			t.ID,
			string(t.Name),
			string(t.State()),
			humanize.RelTime(t.CreatedAt, now, "ago", "from now"),
			taskDuration(t, now),
			truncate(t.Error, 60),
		})
	}
	return rows
}

func taskDuration(t *tasks.Task, now time.Time) string {
	if t.StartedAt == nil {
		return "-"
	}
	end := now
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt).Round(time.Second).String()
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one task with its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *sqlite.Store) error {
				t, err := st.GetTask(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("task %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, toTaskJSON(t))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", t.ID)
				fmt.Fprintf(out, "Task:      %s\n", t.Name)
				fmt.Fprintf(out, "State:     %s\n", t.State())
				fmt.Fprintf(out, "Created:   %s (%s)\n", t.CreatedAt.Local().Format(time.DateTime), humanize.Time(t.CreatedAt))
				if t.StartedAt != nil {
					fmt.Fprintf(out, "Started:   %s\n", t.StartedAt.Local().Format(time.DateTime))
				}
				if t.CompletedAt != nil {
					fmt.Fprintf(out, "Completed: %s\n", t.CompletedAt.Local().Format(time.DateTime))
				}
				if t.Error != "" {
					fmt.Fprintf(out, "Error:     %s\n", t.Error)
				}
				fmt.Fprintf(out, "Payload:\n%s\n", tasks.Pretty(t.Payload))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
