package main

import (
	"github.com/spf13/cobra"

	"sensorsim/internal/experiment"
	"sensorsim/internal/logging"
	"sensorsim/internal/storage"
	"sensorsim/internal/vizserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve persisted runs over HTTP and stream live ticks over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			accessLog, _ := cmd.Flags().GetBool("access-log")

			exp, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := exp.Validate(); err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), exp)
			if err != nil {
				return err
			}
			defer storage.CloseIfSupported(store)

			logger := logging.NewLogger(exp.Logging.Level, cmd.ErrOrStderr())
			hub := vizserver.NewHub(logger)
			runner := experiment.NewRunner(experiment.Config{
				Store:    store,
				Logger:   logger,
				Observer: hub,
			})

			cfg := vizserver.Config{
				Store:  store,
				Hub:    hub,
				Base:   *exp,
				Run:    runner.Run,
				Logger: logger,
			}
			if accessLog {
				cfg.AccessLog = cmd.ErrOrStderr()
			}
			return vizserver.NewServer(cfg).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().Bool("access-log", false, "Write a combined access log to stderr")
	return cmd
}
