package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"sensorsim/internal/storage"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(store storage.Store) error {
				return listRuns(cmd.Context(), cmd.OutOrStdout(), store, limit, jsonOut)
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Max runs to list")
	return cmd
}

type runsItem struct {
	RunID        string  `json:"run_id"`
	StartedAtUTC string  `json:"started_at_utc"`
	Topology     string  `json:"topology"`
	Seed         int64   `json:"seed"`
	Agents       int     `json:"agents"`
	Ticks        int     `json:"ticks"`
	MeanScore    float64 `json:"mean_score"`
	MeanAccuracy float64 `json:"mean_accuracy"`
}

func listRuns(ctx context.Context, out io.Writer, store storage.Store, limit int, jsonOut bool) error {
	if limit <= 0 {
		return errors.New("limit must be > 0")
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}

	items := make([]runsItem, 0, limit)
	ages := make([]string, 0, limit)
	for i := len(runs) - 1; i >= 0 && len(items) < limit; i-- {
		run := runs[i]
		items = append(items, runsItem{
			RunID:        run.ID,
			StartedAtUTC: run.StartedAt.UTC().Format(time.RFC3339),
			Topology:     run.Topology,
			Seed:         run.Seed,
			Agents:       run.Summary.Agents,
			Ticks:        run.Summary.Ticks,
			MeanScore:    run.Summary.MeanScore,
			MeanAccuracy: run.Summary.MeanAccuracy,
		})
		ages = append(ages, humanize.Time(run.StartedAt))
	}

	if jsonOut {
		return writeJSON(out, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}
	for i, item := range items {
		fmt.Fprintf(out, "run_id=%s started=%s (%s) topology=%s seed=%d agents=%d ticks=%d mean_score=%.3f mean_accuracy=%.4f\n",
			paint(out, chalk.Cyan, item.RunID), item.StartedAtUTC, ages[i], item.Topology, item.Seed, item.Agents, item.Ticks, item.MeanScore, item.MeanAccuracy)
	}
	return nil
}
