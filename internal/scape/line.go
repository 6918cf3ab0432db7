package scape

import (
	"fmt"
	"math/rand"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

// Line is a bounded segment [0, Length]. Agents stop at the walls.
type Line struct {
	length float64
	rng    *rand.Rand

	neighborhood neighborhood
}

func NewLine(length float64, seed int64) (*Line, error) {
	if length < 1 {
		return nil, fmt.Errorf("line length must be >= 1, got %v", length)
	}
	return &Line{length: length, rng: rand.New(rand.NewSource(seed))}, nil
}

func (*Line) Name() string {
	return "line"
}

func (l *Line) Length() float64 {
	return l.length
}

// InitPosition draws an integer cell uniformly from [0, Length].
func (l *Line) InitPosition(*agent.Agent) (model.Position, error) {
	return model.Position{X: float64(l.rng.Intn(int(l.length) + 1))}, nil
}

func (l *Line) Move(a *agent.Agent) (model.Position, error) {
	x := a.Position.X + float64(a.Direction)*a.Speed
	return model.Position{X: clamp(x, 0, l.length)}, nil
}

func (l *Line) Reindex(index PositionIndex) error {
	l.neighborhood.reindex(index)
	return nil
}

func (l *Line) Detect(a *agent.Agent, index PositionIndex) error {
	cells := l.neighborhood.cells(index, a.Position, reach(a), 0, 0)
	sense(a, index, cells, func(from, to model.Position) (float64, float64) {
		return to.X - from.X, 0
	})
	return nil
}
