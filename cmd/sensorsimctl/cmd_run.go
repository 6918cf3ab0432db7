package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"sensorsim/internal/experiment"
	"sensorsim/internal/logging"
	"sensorsim/internal/storage"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and persist the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			exp, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("topology") {
				exp.Topology.Name, _ = flags.GetString("topology")
			}
			if flags.Changed("size") {
				exp.Topology.Size, _ = flags.GetFloat64("size")
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
			if flags.Changed("noise") {
				exp.Agents.Noise, _ = flags.GetFloat64("noise")
			}
			if flags.Changed("zero-direction") {
				exp.Agents.ZeroDirection, _ = flags.GetString("zero-direction")
			}
			if noScoring, _ := flags.GetBool("no-scoring"); noScoring {
				exp.Scoring = false
			}
			if flags.Changed("artifacts") || exp.ArtifactsDir == "" {
				exp.ArtifactsDir, _ = flags.GetString("artifacts")
			}
			if flags.Changed("trace") {
				exp.Logging.TracePath, _ = flags.GetString("trace")
			}
			if err := exp.Validate(); err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), exp)
			if err != nil {
				return err
			}
			defer storage.CloseIfSupported(store)

			runner := experiment.NewRunner(experiment.Config{
				Store:  store,
				Logger: logging.NewLogger(exp.Logging.Level, cmd.ErrOrStderr()),
			})
			run, err := runner.Run(cmd.Context(), *exp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, run)
			}
			fmt.Fprintf(out, "run_id=%s topology=%s agents=%d ticks=%d mean_score=%.3f best_score=%d mean_accuracy=%.4f\n",
				paint(out, chalk.Green, run.ID), run.Topology, run.Summary.Agents, run.Summary.Ticks,
				run.Summary.MeanScore, run.Summary.BestScore, run.Summary.MeanAccuracy)
			return nil
		},
	}

	cmd.Flags().String("topology", "", "Topology name (see 'sensorsimctl topologies')")
	cmd.Flags().Float64("size", 0, "Line length or ring circumference")
	cmd.Flags().Int("agents", 0, "Number of agents")
	cmd.Flags().Int("ticks", 0, "Number of ticks to simulate")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Float64("noise", 0, "Network noise standard deviation")
	cmd.Flags().String("zero-direction", "", "Behavior when the policy rounds to 0: stay or keep")
	cmd.Flags().Bool("no-scoring", false, "Skip prediction and scoring")
	cmd.Flags().String("artifacts", defaultArtifactsDir, "Directory for run artifacts (empty disables them)")
	cmd.Flags().String("trace", "", "Write a JSONL tick trace to this file")

	return cmd
}
