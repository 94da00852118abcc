package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/eomgitae/care-console/internal/session"
	"github.com/spf13/cobra"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "View and manage session logs",
		Long: `View and manage session event logs.

Session logs are NDJSON files (optionally gzip-compressed) written during
"care play". They record the full lifecycle: session start, every spoken
line, findings, advisory banners and the final severity breakdown.`,
	}

	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionViewCommand())

	return cmd
}

func newSessionListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded session logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := loadProjectConfig()
				if err != nil {
					return err
				}
				dir = cfg.Paths.SessionLogs
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			files, err := session.ListSessions(absDir)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			printSessions(cmd.OutOrStdout(), files)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to search for session logs (default from .care.yaml)")

	return cmd
}

func newSessionViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <session-file>",
		Short: "View a session timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return fmt.Errorf("reading session: %w", err)
			}

			session.RenderTimeline(cmd.OutOrStdout(), events)
			return nil
		},
	}

	return cmd
}

//nolint:errcheck // display-only writes
func printSessions(w io.Writer, files []session.SessionFile) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No session logs found.")
		return
	}

	fmt.Fprintf(w, "%-40s %-8s %s\n", "File", "Events", "Modified")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────────")
	for _, f := range files {
		fmt.Fprintf(w, "%-40s %-8d %s\n", f.Name, f.NumEvents, f.ModTime.Format("2006-01-02 15:04:05"))
	}
}
