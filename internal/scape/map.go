package scape

import (
	"fmt"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

// Map registers agents on a topology and advances them in lockstep.
type Map struct {
	topology  Topology
	agents    []*agent.Agent
	positions map[*agent.Agent]model.Position
	index     PositionIndex
	ticks     int
	scoring   bool
}

type MapOption func(*Map)

// WithPredictionScoring folds prediction and scoring into every tick: all
// agents predict before deciding, and score once detection is done.
func WithPredictionScoring() MapOption {
	return func(m *Map) {
		m.scoring = true
	}
}

func NewMap(topology Topology, opts ...MapOption) (*Map, error) {
	if topology == nil {
		return nil, ErrNilTopology
	}
	m := &Map{
		topology:  topology,
		positions: make(map[*agent.Agent]model.Position),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Map) Topology() Topology {
	return m.topology
}

// AddAgent registers a and places it. Adding an agent that is already
// registered is a no-op and reports false.
func (m *Map) AddAgent(a *agent.Agent) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("agent is required")
	}
	if _, ok := m.positions[a]; ok {
		return false, nil
	}
	if a.Placed {
		return false, fmt.Errorf("%w: agent %d", ErrForeignAgent, a.ID)
	}

	position, err := m.topology.InitPosition(a)
	if err != nil {
		return false, fmt.Errorf("%s init position agent %d: %w", m.topology.Name(), a.ID, err)
	}
	m.agents = append(m.agents, a)
	m.positions[a] = position
	a.Place(position)
	return true, nil
}

// Step runs one tick. All agents decide from the previous tick's sensors,
// then all move, then all detect against the post-move index.
func (m *Map) Step() error {
	if m.scoring {
		for _, a := range m.agents {
			if err := a.PredictSensors(); err != nil {
				return err
			}
		}
	}

	for _, a := range m.agents {
		if err := a.TakeDecision(); err != nil {
			return err
		}
	}

	for _, a := range m.agents {
		position, err := m.topology.Move(a)
		if err != nil {
			return fmt.Errorf("%s move agent %d: %w", m.topology.Name(), a.ID, err)
		}
		m.positions[a] = position
		a.MoveTo(position)
	}

	m.index = m.buildIndex()
	if r, ok := m.topology.(Reindexer); ok {
		if err := r.Reindex(m.index); err != nil {
			return fmt.Errorf("%s reindex: %w", m.topology.Name(), err)
		}
	}
	for _, a := range m.agents {
		if err := m.topology.Detect(a, m.index); err != nil {
			return fmt.Errorf("%s detect agent %d: %w", m.topology.Name(), a.ID, err)
		}
	}

	if m.scoring {
		for _, a := range m.agents {
			a.ComputeScore()
		}
	}

	m.ticks++
	return nil
}

// Run calls Step length times. Zero is a no-op.
func (m *Map) Run(length int) error {
	if length < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLength, length)
	}
	for i := 0; i < length; i++ {
		if err := m.Step(); err != nil {
			return fmt.Errorf("tick %d: %w", m.ticks, err)
		}
	}
	return nil
}

func (m *Map) Agents() []*agent.Agent {
	return append([]*agent.Agent(nil), m.agents...)
}

func (m *Map) Position(a *agent.Agent) (model.Position, bool) {
	position, ok := m.positions[a]
	return position, ok
}

// Index returns the position index built by the last Step, or nil before
// the first tick.
func (m *Map) Index() PositionIndex {
	return m.index
}

func (m *Map) Scoring() bool {
	return m.scoring
}

func (m *Map) Ticks() int {
	return m.ticks
}

func (m *Map) buildIndex() PositionIndex {
	index := make(PositionIndex, len(m.agents))
	for _, a := range m.agents {
		position := m.positions[a]
		index[position] = append(index[position], a)
	}
	return index
}
