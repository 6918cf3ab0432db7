package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"sensorsim/internal/experiment"
	"sensorsim/internal/logging"
	"sensorsim/internal/storage"
	"sensorsim/internal/termview"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run one simulation and draw it in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			delay, _ := cmd.Flags().GetDuration("delay")

			exp, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("topology") {
				exp.Topology.Name, _ = flags.GetString("topology")
			}
			if flags.Changed("agents") {
				exp.Agents.Count, _ = flags.GetInt("agents")
			}
			if flags.Changed("ticks") {
				exp.Ticks, _ = flags.GetInt("ticks")
			}
			if flags.Changed("seed") {
				exp.Seed, _ = flags.GetInt64("seed")
			}
			if err := exp.Validate(); err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), exp)
			if err != nil {
				return err
			}
			defer storage.CloseIfSupported(store)

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init screen: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go termview.QuitOnKey(screen, cancel)

			width, height := termview.WorldSize(*exp)
			runner := experiment.NewRunner(experiment.Config{
				Store:    store,
				Logger:   logging.Discard(),
				Observer: termview.New(screen, width, height, delay),
			})
			run, err := runner.Run(ctx, *exp)
			screen.Fini()
			if errors.Is(err, context.Canceled) && cmd.Context().Err() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "watch stopped, run not saved")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s mean_score=%.3f best_score=%d\n",
				run.ID, run.Summary.MeanScore, run.Summary.BestScore)
			return nil
		},
	}

	cmd.Flags().String("topology", "", "Topology name (see 'sensorsimctl topologies')")
	cmd.Flags().Int("agents", 0, "Number of agents")
	cmd.Flags().Int("ticks", 0, "Number of ticks to simulate")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Duration("delay", 100*time.Millisecond, "Pause after each drawn tick")
	return cmd
}
