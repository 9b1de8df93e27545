package main

import (
	"github.com/spf13/cobra"

	"ballotforge/internal/daemonrun"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background task worker in the foreground",
		Long: "Run the background task worker until interrupted.\n\n" +
			"Only one worker may run per data directory. Tasks left running by a\n" +
			"previous worker are requeued at startup.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevel,
				Version:  version,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	return cmd
}
