package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sensorsim/internal/stats"
	"sensorsim/internal/storage"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts of a run into an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			artifactsDir, _ := cmd.Flags().GetString("artifacts")
			outDir, _ := cmd.Flags().GetString("out")

			if runID != "" && latest {
				return errors.New("use either --run-id or --latest, not both")
			}
			if runID == "" && !latest {
				return errors.New("export requires --run-id or --latest")
			}
			if latest {
				err := withStore(cmd, func(store storage.Store) error {
					runs, err := store.ListRuns(cmd.Context())
					if err != nil {
						return err
					}
					if len(runs) == 0 {
						return errors.New("no runs available to export")
					}
					runID = runs[len(runs)-1].ID
					return nil
				})
				if err != nil {
					return err
				}
			}

			exportedDir, err := stats.ExportRunArtifacts(artifactsDir, runID, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s to=%s\n", runID, filepath.Clean(exportedDir))
			return nil
		},
	}
	cmd.Flags().String("run-id", "", "Run id")
	cmd.Flags().Bool("latest", false, "Export the most recent run in the store")
	cmd.Flags().String("artifacts", defaultArtifactsDir, "Directory the run wrote its artifacts to")
	cmd.Flags().String("out", "exports", "Export output directory")
	return cmd
}
