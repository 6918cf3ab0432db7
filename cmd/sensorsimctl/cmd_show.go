package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"sensorsim/internal/model"
	"sensorsim/internal/storage"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and the final state of its agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return withStore(cmd, func(store storage.Store) error {
				return showRun(cmd.Context(), cmd.OutOrStdout(), store, args[0], jsonOut)
			})
		},
	}
}

func showRun(ctx context.Context, out io.Writer, store storage.Store, runID string, jsonOut bool) error {
	run, ok, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	agents, _, err := store.GetAgentSnapshots(ctx, runID)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(out, struct {
			Run    model.RunRecord       `json:"run"`
			Agents []model.AgentSnapshot `json:"agents"`
		}{Run: run, Agents: agents})
	}

	s := run.Summary
	fmt.Fprintf(out, "run_id=%s topology=%s seed=%d\n", paint(out, chalk.Green, run.ID), run.Topology, run.Seed)
	fmt.Fprintf(out, "started=%s (%s) finished=%s\n",
		run.StartedAt.UTC().Format(time.RFC3339), humanize.Time(run.StartedAt), run.FinishedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "agents=%d ticks=%d mean_score=%.3f best_score=%d mean_accuracy=%.4f entropy0=%.4f entropy1=%.4f\n",
		s.Agents, s.Ticks, s.MeanScore, s.BestScore, s.MeanAccuracy, s.MeanSensorEntropy[0], s.MeanSensorEntropy[1])
	for _, a := range agents {
		fmt.Fprintf(out, "agent=%s x=%g y=%g direction=%d score=%d accuracy=%.4f s0=%v s1=%v\n",
			paint(out, chalk.Yellow, strconv.Itoa(a.ID)), a.Position.X, a.Position.Y, a.Direction, a.Score, a.PredictionAccuracy,
			a.Sensor0ActivationCount, a.Sensor1ActivationCount)
	}
	return nil
}
