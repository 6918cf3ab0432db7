package scape

import (
	"fmt"
	"math/rand"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

// Ring is a closed loop of the given circumference. Offsets are measured
// along the shortest arc.
type Ring struct {
	circumference float64
	rng           *rand.Rand

	neighborhood neighborhood
}

func NewRing(circumference float64, seed int64) (*Ring, error) {
	if circumference < 1 {
		return nil, fmt.Errorf("ring circumference must be >= 1, got %v", circumference)
	}
	return &Ring{circumference: circumference, rng: rand.New(rand.NewSource(seed))}, nil
}

func (*Ring) Name() string {
	return "ring"
}

func (r *Ring) Circumference() float64 {
	return r.circumference
}

func (r *Ring) InitPosition(*agent.Agent) (model.Position, error) {
	return model.Position{X: float64(r.rng.Intn(int(r.circumference)))}, nil
}

func (r *Ring) Move(a *agent.Agent) (model.Position, error) {
	x := a.Position.X + float64(a.Direction)*a.Speed
	return model.Position{X: mod(x, r.circumference)}, nil
}

func (r *Ring) Reindex(index PositionIndex) error {
	r.neighborhood.reindex(index)
	return nil
}

func (r *Ring) Detect(a *agent.Agent, index PositionIndex) error {
	cells := r.neighborhood.cells(index, a.Position, reach(a), r.circumference, 0)
	sense(a, index, cells, func(from, to model.Position) (float64, float64) {
		return wrap(to.X-from.X, r.circumference), 0
	})
	return nil
}
