package main

import (
	"fmt"
	"os"

	"github.com/eomgitae/care-console/internal/script"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script.yaml>",
		Short: "Check that a consultation script can be played",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			out := cmd.OutOrStdout()
			if problems := script.ValidateBytes(data); len(problems) > 0 {
				fmt.Fprintf(out, "✗ %s\n", args[0]) //nolint:errcheck
				for _, p := range problems {
					fmt.Fprintf(out, "  - %s\n", p) //nolint:errcheck
				}
				return fmt.Errorf("%s: %d problem(s) found", args[0], len(problems))
			}

			s, err := script.Parse(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ %s: %q, %d lines, %d annotated, %s\n", //nolint:errcheck
				args[0], s.Name, len(s.Lines), s.AnnotatedCount(), s.Length())
			return nil
		},
	}

	return cmd
}
