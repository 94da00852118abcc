package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eomgitae/care-console/internal/clock"
	"github.com/eomgitae/care-console/internal/console"
	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/intake"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
	"github.com/eomgitae/care-console/internal/projectconfig"
	"github.com/eomgitae/care-console/internal/report"
	"github.com/eomgitae/care-console/internal/script"
	"github.com/eomgitae/care-console/internal/session"
	"github.com/eomgitae/care-console/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type playOptions struct {
	customer   string
	phone      string
	speed      float64
	autoStop   bool
	sessionLog bool
	noHistory  bool
	historyDB  string
	format     string
	outputPath string
	failOn     string
}

func newPlayCommand() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play [script.yaml]",
		Short: "Play a consultation with live compliance feedback",
		Long: `Play a scripted consultation in real time.

Lines are printed as they are spoken. Flagged lines raise a compliance
finding shortly afterwards, and serious findings open an advisory banner
that closes on its own. Press Enter to dismiss the banner early.

Press Ctrl-C to end the consultation, or pass --auto-stop to end it as soon
as the script has played. The finished consultation is saved to the history
database and a report is printed.

Without a script argument the built-in pension consultation is played.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.customer, "customer", "", "Customer name (prompted for when omitted on a terminal)")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "Customer phone number")
	cmd.Flags().Float64Var(&opts.speed, "speed", projectconfig.DefaultSpeed, "Playback speed factor (2 plays twice as fast)")
	cmd.Flags().BoolVar(&opts.autoStop, "auto-stop", false, "End the consultation when playback completes")
	cmd.Flags().BoolVar(&opts.sessionLog, "session-log", true, "Write an NDJSON session event log")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not save the consultation to the history database")
	cmd.Flags().StringVar(&opts.historyDB, "history-db", "", "History database path (default from .care.yaml)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text, markdown, html, junit")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Exit with code 1 when a finding at or above this severity is raised (high, medium, low)")

	return cmd
}

func runPlay(cmd *cobra.Command, args []string, opts *playOptions) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("speed") {
		opts.speed = cfg.Playback.Speed
	}
	if !flags.Changed("auto-stop") && cfg.Playback.AutoStop != nil {
		opts.autoStop = *cfg.Playback.AutoStop
	}
	if !flags.Changed("session-log") && cfg.Playback.SessionLog != nil {
		opts.sessionLog = *cfg.Playback.SessionLog
	}
	if opts.speed <= 0 {
		return fmt.Errorf("--speed must be positive, got %v", opts.speed)
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	var failOn models.Severity
	if opts.failOn != "" {
		if failOn, err = models.ParseSeverity(opts.failOn); err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
	}
	if err := intake.ValidatePhone(opts.phone); err != nil {
		return fmt.Errorf("--phone: %w", err)
	}

	scr := script.Default()
	if len(args) == 1 {
		if scr, err = script.Load(args[0]); err != nil {
			return err
		}
	}

	customer := models.Customer{Name: opts.customer, Phone: intake.NormalizePhone(opts.phone)}
	if customer.Name == "" && intake.IsTerminal(cmd.InOrStdin()) {
		if customer, err = intake.Run(cmd.InOrStdin(), cmd.OutOrStdout(), customer); err != nil {
			return err
		}
	}

	run, err := scr.Run(cfg.Agent, customer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openHistory(ctx, cfg, opts.historyDB, opts.noHistory)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	logger := slog.Default()
	var savedNo int64
	clk := clock.NewRealtime(clock.WithSpeed(opts.speed))
	eng := playback.New(clk,
		playback.WithConfig(cfg.EngineConfig()),
		playback.WithLogger(logger),
		playback.WithHandoff(history.Handoff(store, logger, func(no int64) { savedNo = no })),
	)

	out := cmd.OutOrStdout()
	var conOpts []console.Option
	if opts.autoStop {
		conOpts = append(conOpts, console.WithCompletionHint("Playback complete. Ending the consultation."))
	}
	eng.Subscribe(console.New(out, conOpts...).Listener())

	if opts.sessionLog {
		compress := cfg.Playback.CompressLogs != nil && *cfg.Playback.CompressLogs
		sl, err := session.NewJSONLogger(session.DefaultLogPath(cfg.Paths.SessionLogs, compress))
		if err != nil {
			return err
		}
		defer sl.Close() //nolint:errcheck
		eng.Subscribe(session.Listener(sl, logger))
		logger.Debug("session log enabled", "path", sl.Path())
	}

	if err := eng.Start(run); err != nil {
		return err
	}
	if intake.IsTerminal(cmd.InOrStdin()) {
		go dismissOnEnter(cmd.InOrStdin(), eng)
	}

	if err := waitForEnd(ctx, clk, eng, opts.autoStop); err != nil {
		return err
	}

	// The handoff must finish even when the run ended on a signal.
	stopSpin := spinner.Start(out, "상담 내용을 저장하는 중...")
	outcome, err := eng.Stop(context.WithoutCancel(ctx))
	stopSpin()
	if err != nil {
		return err
	}
	if savedNo > 0 && !opts.noHistory {
		fmt.Fprintf(out, "Saved consultation #%d\n", savedNo) //nolint:errcheck
	}

	if err := writePlayReport(out, format, opts.outputPath, &outcome); err != nil {
		return err
	}
	return checkFailOn(&outcome, failOn)
}

// waitForEnd drives the clock until the consultation is ended by a signal
// or, with autoStop, by playback completing.
func waitForEnd(ctx context.Context, clk *clock.Realtime, eng *playback.Engine, autoStop bool) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)

	g.Go(func() error {
		return clk.Run(runCtx)
	})
	g.Go(func() error {
		defer cancelRun()
		if !autoStop {
			<-gctx.Done()
			return nil
		}
		select {
		case <-eng.Done():
		case <-gctx.Done():
		}
		return nil
	})

	return g.Wait()
}

func dismissOnEnter(in io.Reader, eng *playback.Engine) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		eng.Dismiss()
	}
}

func writePlayReport(out io.Writer, format report.Format, path string, outcome *models.Outcome) error {
	if path == "" {
		fmt.Fprintln(out) //nolint:errcheck
		return report.Write(out, format, outcome)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.Write(f, format, outcome); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(out, "Report written to %s\n", path) //nolint:errcheck
	return nil
}

// checkFailOn returns a FindingsError when any finding is at least as
// serious as threshold. An empty threshold never fails.
func checkFailOn(outcome *models.Outcome, threshold models.Severity) error {
	if threshold == "" {
		return nil
	}
	n := 0
	for _, sev := range models.Severities {
		if sev.Rank() >= threshold.Rank() {
			n += outcome.Breakdown.Count(sev)
		}
	}
	if n == 0 {
		return nil
	}
	return &FindingsError{
		Message: fmt.Sprintf("consultation %s raised %d finding(s) at or above %s", outcome.SessionID, n, threshold.Label()),
	}
}
