package storage

import (
	"errors"
	"testing"

	"sensorsim/internal/model"
)

func TestDecodeRunVersionCheck(t *testing.T) {
	data, err := EncodeRun(model.RunRecord{VersionedRecord: CurrentVersion(), ID: "run-1", Seed: 7})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "run-1" || run.Seed != 7 {
		t.Fatalf("unexpected run: %+v", run)
	}

	stale, _ := EncodeRun(model.RunRecord{ID: "old"})
	if _, err := DecodeRun(stale); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if _, err := DecodeRun([]byte("{")); err == nil {
		t.Fatal("expected malformed payload error")
	}
}

func TestDecodeAgentSnapshotsVersionCheck(t *testing.T) {
	good, _ := EncodeAgentSnapshots([]model.AgentSnapshot{{VersionedRecord: CurrentVersion(), ID: 1}})
	agents, err := DecodeAgentSnapshots(good)
	if err != nil || len(agents) != 1 {
		t.Fatalf("decode: agents=%v err=%v", agents, err)
	}

	bad, _ := EncodeAgentSnapshots([]model.AgentSnapshot{{ID: 1}})
	if _, err := DecodeAgentSnapshots(bad); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
