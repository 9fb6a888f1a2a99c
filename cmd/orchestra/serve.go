// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pipeline-orchestra/internal/history"
	"github.com/pdiddy/pipeline-orchestra/internal/logging"
	"github.com/pdiddy/pipeline-orchestra/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live visualization server",
	Long: `Serve starts the streaming server. The search backend connects to
/ws/ingest and pushes one JSON snapshot per progress event; renderer clients
connect to /ws/view and receive derived-state frames. GET /report downloads
the methodology report for the current session, and completed runs are
archived for the history command.

Put a token in .secrets/ingest-token to require it on the ingest endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Server.Debug = true
		}

		log := logging.New(cfg.Server.Debug)
		defer log.Sync()

		var store *history.Store
		if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
			var err error
			store, err = history.NewStore(cfg.History)
			if err != nil {
				return fmt.Errorf("opening session archive: %w", err)
			}
			defer store.Close()
		}

		srv, err := server.New(cfg.Server, cfg.Stabilizer, store, log)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(cfg.Server.Addr) }()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case s := <-sig:
			log.Info("shutting down", zap.String("signal", s.String()))
			return srv.Shutdown()
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	serveCmd.Flags().Bool("debug", false, "console logging at debug level")
	serveCmd.Flags().Bool("no-archive", false, "disable archiving of completed sessions")

	rootCmd.AddCommand(serveCmd)
}
