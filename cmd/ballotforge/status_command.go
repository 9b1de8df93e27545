package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ballotforge/internal/preflight"
	"ballotforge/internal/store"
	"ballotforge/internal/store/sqlite"
	"ballotforge/internal/tasks"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependency checks and queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Optional:
					status = "warn"
				case !r.Passed:
					status = "fail"
				}
				rows = append(rows, []string{r.Name, status, yesNo(!r.Optional), r.Detail})
			}
			fmt.Fprintln(out, "Dependencies")
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Required", "Detail"}, rows, nil))

			return ctx.withStore(func(st *sqlite.Store) error {
				states := []tasks.State{tasks.StateQueued, tasks.StateRunning, tasks.StateSucceeded, tasks.StateFailed}
				counts := make([][]string, 0, len(states))
				for _, state := range states {
					list, err := st.ListTasks(cmd.Context(), store.TaskFilter{State: state})
					if err != nil {
						return err
					}
					counts = append(counts, []string{string(state), strconv.Itoa(len(list))})
				}
				fmt.Fprintln(out, "Queue")
				fmt.Fprint(out, renderTable([]string{"State", "Tasks"}, counts, []columnAlignment{alignLeft, alignRight}))
				if failed := preflight.Failed(results); len(failed) > 0 {
					fmt.Fprintf(out, "%d required check(s) failing; exports will fail until fixed\n", len(failed))
				}
				return nil
			})
		},
	}
}
