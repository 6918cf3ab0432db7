package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"sensorsim/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	agents      map[string][]model.AgentSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.agents = make(map[string][]model.AgentSnapshot)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run.AccuracyHistory = append([]float64(nil), run.AccuracyHistory...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.AccuracyHistory = append([]float64(nil), run.AccuracyHistory...)
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.AccuracyHistory = append([]float64(nil), run.AccuracyHistory...)
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	delete(s.agents, id)
	return nil
}

func (s *MemoryStore) SaveAgentSnapshots(_ context.Context, runID string, agents []model.AgentSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.agents[runID] = copySnapshots(agents)
	return nil
}

func (s *MemoryStore) GetAgentSnapshots(_ context.Context, runID string) ([]model.AgentSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents, ok := s.agents[runID]
	if !ok {
		return nil, false, nil
	}
	return copySnapshots(agents), true, nil
}

func copySnapshots(agents []model.AgentSnapshot) []model.AgentSnapshot {
	copied := make([]model.AgentSnapshot, 0, len(agents))
	for _, a := range agents {
		a.PositionHistory = append([]model.Position(nil), a.PositionHistory...)
		copied = append(copied, a)
	}
	return copied
}
