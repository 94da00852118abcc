package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eomgitae/care-console/internal/webserver"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		port    int
		dbPath  string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve consultation history over a read-only JSON API",
		Long: `Serve the history database over HTTP on 127.0.0.1.

Endpoints:
  GET /api/health
  GET /api/consultations?customer=&limit=&offset=
  GET /api/consultations/{no}
  GET /api/consultations/{no}/factchecks
  GET /api/consultations/{no}/report[?format=text|markdown|html|junit]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openHistory(ctx, cfg, dbPath, false)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			srv, err := webserver.New(webserver.Config{
				Port:           port,
				Store:          store,
				AllowedOrigins: origins,
				Logger:         slog.Default(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Serving consultation history on http://%s\n", srv.Addr()) //nolint:errcheck
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "Port to listen on (default from .care.yaml)")
	cmd.Flags().StringVar(&dbPath, "db", "", "History database path (default from .care.yaml)")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "Origin allowed to call the API from a browser (repeatable)")

	return cmd
}
