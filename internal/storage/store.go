package storage

import (
	"context"

	"sensorsim/internal/model"
)

// Store persists finished runs and the final state of their agents.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run ordered by start time, oldest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveAgentSnapshots(ctx context.Context, runID string, agents []model.AgentSnapshot) error
	GetAgentSnapshots(ctx context.Context, runID string) ([]model.AgentSnapshot, bool, error)
}
