package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sensorsim/internal/config"
	"sensorsim/internal/storage"
)

const defaultArtifactsDir = "artifacts"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sensorsimctl",
		Short: "Run and inspect sensor prediction simulations",
		Long: `sensorsimctl drives populations of sensing agents over a topology.

Each agent predicts what its sensors will read after the next move and is
scored on how many sensor slots it got right. Finished runs are persisted
and can be listed, inspected and exported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Experiment config file (YAML)")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory or sqlite (default depends on build)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newRunCmd(),
		newRunsCmd(),
		newShowCmd(),
		newExportCmd(),
		newTopologiesCmd(),
		newServeCmd(),
		newWatchCmd(),
	)
	return rootCmd
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Experiment, error) {
	path, _ := cmd.Flags().GetString("config")
	exp, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("store"); v != "" {
		exp.Storage.Kind = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		exp.Storage.Path = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		exp.Logging.Level = v
	}
	if exp.Storage.Kind == "" {
		exp.Storage.Kind = storage.DefaultStoreKind()
	}
	return exp, nil
}

// openStore opens and initializes the configured store. The caller closes it
// with storage.CloseIfSupported.
func openStore(ctx context.Context, exp *config.Experiment) (storage.Store, error) {
	store, err := storage.NewStore(exp.Storage.Kind, exp.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", exp.Storage.Kind, err)
	}
	return store, nil
}

func withStore(cmd *cobra.Command, fn func(storage.Store) error) error {
	exp, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), exp)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)
	return fn(store)
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
