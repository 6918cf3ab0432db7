package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sensorsim/internal/model"
)

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	artifacts := RunArtifacts{
		Run: model.RunRecord{
			ID:              "run-123",
			Topology:        "ring",
			Seed:            1,
			AccuracyHistory: []float64{0.5, 0.75},
		},
		Agents: []model.AgentSnapshot{{ID: 0, Score: 5}},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range artifactFiles {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	series, err := os.ReadFile(filepath.Join(runDir, "accuracy_history.csv"))
	if err != nil {
		t.Fatalf("read series: %v", err)
	}
	if !strings.Contains(string(series), "2,0.75") {
		t.Fatalf("unexpected series: %s", series)
	}

	exportedDir, err := ExportRunArtifacts(baseDir, "run-123", outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	loaded, err := ReadRunArtifacts(outDir, "run-123")
	if err != nil {
		t.Fatalf("read exported artifacts: %v", err)
	}
	if loaded.Run.Topology != "ring" || len(loaded.Agents) != 1 || loaded.Agents[0].Score != 5 {
		t.Fatalf("unexpected exported artifacts in %s: %+v", exportedDir, loaded)
	}
}

func TestWriteRunArtifactsRequiresID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
	if _, err := ExportRunArtifacts(t.TempDir(), "missing", t.TempDir()); err == nil {
		t.Fatal("expected missing run error")
	}
}
