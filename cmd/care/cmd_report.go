package main

import (
	"fmt"

	"github.com/eomgitae/care-console/internal/report"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	var (
		dbPath     string
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "report <no>",
		Short: "Render the report of a saved consultation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			no, err := parseConsultationNo(args[0])
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := openCommandHistory(cmd, dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			c, err := store.GetConsultation(cmd.Context(), no)
			if err != nil {
				return consultationError(no, err)
			}
			outcome := c.Outcome()
			if outputPath == "" {
				return report.Write(cmd.OutOrStdout(), f, &outcome)
			}
			if err := writePlayReport(cmd.OutOrStdout(), f, outputPath, &outcome); err != nil {
				return fmt.Errorf("consultation #%d: %w", no, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "History database path (default from .care.yaml)")
	cmd.Flags().StringVar(&format, "format", "text", "Report format: text, markdown, html, junit")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}
