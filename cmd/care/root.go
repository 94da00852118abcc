package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "care",
		Short: "care - consultation playback with live compliance feedback",
		Long: `care replays scripted financial consultations and raises compliance
feedback as flagged lines are spoken.

Each finished consultation is saved to a local history database, from
which reports can be rendered or served over a read-only JSON API.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newPlayCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newSessionCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
