package scape

import (
	"errors"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

var (
	ErrNotImplemented = errors.New("topology capability not implemented")
	ErrNilTopology    = errors.New("topology is required")
	ErrNegativeLength = errors.New("run length must be >= 0")
	ErrForeignAgent   = errors.New("agent is already placed on another map")
)

// PositionIndex maps each occupied position to the agents standing on it, in
// registration order. It is rebuilt every tick.
type PositionIndex map[model.Position][]*agent.Agent

// Topology owns the geometry: where agents start, how they move and what
// their sensors see.
type Topology interface {
	Name() string
	// InitPosition is called once per agent, at registration.
	InitPosition(a *agent.Agent) (model.Position, error)
	// Move returns the agent's next position from its direction and speed.
	Move(a *agent.Agent) (model.Position, error)
	// Detect fills the agent's sensors through agent.SetSensors.
	Detect(a *agent.Agent, index PositionIndex) error
}

// UnimplementedTopology can be embedded by partial topologies. Every hook it
// provides fails with ErrNotImplemented.
type UnimplementedTopology struct{}

func (UnimplementedTopology) Name() string {
	return "unimplemented"
}

func (UnimplementedTopology) InitPosition(*agent.Agent) (model.Position, error) {
	return model.Position{}, ErrNotImplemented
}

func (UnimplementedTopology) Move(*agent.Agent) (model.Position, error) {
	return model.Position{}, ErrNotImplemented
}

func (UnimplementedTopology) Detect(*agent.Agent, PositionIndex) error {
	return ErrNotImplemented
}
