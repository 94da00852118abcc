package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved consultations",
		Long: `Browse consultations saved to the history database.

Every consultation ended with Ctrl-C or --auto-stop is saved together with
its transcript and fact checks.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database path (default from .care.yaml)")

	cmd.AddCommand(newHistoryListCommand(&dbPath))
	cmd.AddCommand(newHistoryShowCommand(&dbPath))
	cmd.AddCommand(newHistoryDeleteCommand(&dbPath))

	return cmd
}

func newHistoryListCommand(dbPath *string) *cobra.Command {
	var filter history.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved consultations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandHistory(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			rows, err := store.ListConsultations(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printConsultations(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.CustomerName, "customer", "", "Only consultations whose customer name contains this text")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum rows to show (0 for all)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Rows to skip")

	return cmd
}

func newHistoryShowCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <no>",
		Short: "Show a consultation with its fact checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			no, err := parseConsultationNo(args[0])
			if err != nil {
				return err
			}
			store, err := openCommandHistory(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			c, err := store.GetConsultation(cmd.Context(), no)
			if err != nil {
				return consultationError(no, err)
			}
			printConsultation(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newHistoryDeleteCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <no>",
		Short: "Delete a consultation and its fact checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			no, err := parseConsultationNo(args[0])
			if err != nil {
				return err
			}
			store, err := openCommandHistory(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			if err := store.DeleteConsultation(cmd.Context(), no); err != nil {
				return consultationError(no, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted consultation #%d\n", no) //nolint:errcheck
			return nil
		},
	}
}

func openCommandHistory(cmd *cobra.Command, dbPath string) (history.Store, error) {
	cfg, err := loadProjectConfig()
	if err != nil {
		return nil, err
	}
	return openHistory(cmd.Context(), cfg, dbPath, false)
}

func parseConsultationNo(s string) (int64, error) {
	no, err := strconv.ParseInt(s, 10, 64)
	if err != nil || no <= 0 {
		return 0, fmt.Errorf("invalid consultation number %q", s)
	}
	return no, nil
}

func consultationError(no int64, err error) error {
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("consultation #%d not found", no)
	}
	return err
}

//nolint:errcheck // display-only writes
func printConsultations(w io.Writer, rows []history.Consultation) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No consultations found.")
		return
	}

	fmt.Fprintf(w, "%-6s %-17s %s %-10s %s\n", "No", "Started", runewidth.FillRight("Customer", 12), "Session", "심각/경고/정보")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────────")
	for _, c := range rows {
		fmt.Fprintf(w, "%-6d %-17s %s %-10s %d/%d/%d\n",
			c.No,
			c.StartedAt.Local().Format("2006-01-02 15:04"),
			runewidth.FillRight(runewidth.Truncate(c.Customer.Name, 12, "…"), 12),
			c.SessionID,
			c.Breakdown.High, c.Breakdown.Medium, c.Breakdown.Low)
	}
}

//nolint:errcheck // display-only writes
func printConsultation(w io.Writer, c history.Consultation) {
	fmt.Fprintf(w, "Consultation #%d  (session %s)\n", c.No, c.SessionID)
	if c.ScriptName != "" {
		fmt.Fprintf(w, "  Script:   %s\n", c.ScriptName)
	}
	fmt.Fprintf(w, "  Agent:    %s\n", c.Agent.Name)
	fmt.Fprintf(w, "  Customer: %s", c.Customer.Name)
	if c.Customer.Phone != "" {
		fmt.Fprintf(w, " (%s)", c.Customer.Phone)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Period:   %s ~ %s\n",
		c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.EndedAt.Local().Format("15:04:05"))
	fmt.Fprintf(w, "  Messages: %d\n", len(c.Messages))
	fmt.Fprintf(w, "  Findings: 심각 %d · 경고 %d · 정보 %d\n", c.Breakdown.High, c.Breakdown.Medium, c.Breakdown.Low)

	if len(c.FactChecks) == 0 {
		fmt.Fprintln(w, "\nNo compliance issues detected.")
		return
	}
	fmt.Fprintln(w)
	for i, fc := range c.FactChecks {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, fc.Severity, fc.Category)
		if fc.DetectedStatement != "" {
			fmt.Fprintf(w, "   발언: %s\n", fc.DetectedStatement)
		}
		if fc.Suggestion != "" {
			fmt.Fprintf(w, "   권장: %s\n", fc.Suggestion)
		}
		if fc.Regulation != "" {
			fmt.Fprintf(w, "   근거: %s\n", fc.Regulation)
		}
	}
}
