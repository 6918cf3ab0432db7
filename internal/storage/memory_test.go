package storage

import (
	"context"
	"testing"
	"time"

	"sensorsim/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "run-1",
		Topology:        "ring",
		AccuracyHistory: []float64{0.1, 0.2},
	}
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}
	input.AccuracyHistory[0] = 99

	output, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if output.Topology != "ring" || output.AccuracyHistory[0] != 0.1 {
		t.Fatalf("unexpected run: %+v", output)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		run := model.RunRecord{VersionedRecord: CurrentVersion(), ID: id, StartedAt: base.Add(time.Duration(3-i) * time.Minute)}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	got := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got=%v want=%v", got, want)
		}
	}
}

func TestMemoryStoreAgentSnapshotsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	snapshots := []model.AgentSnapshot{{ID: 1, PositionHistory: []model.Position{{X: 1}}}}
	if err := store.SaveRun(ctx, model.RunRecord{ID: "run-1"}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveAgentSnapshots(ctx, "run-1", snapshots); err != nil {
		t.Fatalf("save snapshots: %v", err)
	}
	snapshots[0].PositionHistory[0].X = 42

	got, ok, err := store.GetAgentSnapshots(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get snapshots: ok=%v err=%v", ok, err)
	}
	if got[0].PositionHistory[0].X != 1 {
		t.Fatal("store must keep its own copy of the history")
	}

	if err := store.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetAgentSnapshots(ctx, "run-1"); ok {
		t.Fatal("expected snapshots to be deleted with the run")
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	if err := NewMemoryStore().SaveRun(context.Background(), model.RunRecord{ID: "x"}); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
