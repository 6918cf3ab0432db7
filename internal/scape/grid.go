package scape

import (
	"fmt"
	"math/rand"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

// Grid is a torus. Agents travel along their row; sensors also cover the
// rows within range above and below.
type Grid struct {
	width  int
	height int
	rng    *rand.Rand

	neighborhood neighborhood
}

func NewGrid(width, height int, seed int64) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grid dimensions must be >= 1, got %dx%d", width, height)
	}
	return &Grid{width: width, height: height, rng: rand.New(rand.NewSource(seed))}, nil
}

func (*Grid) Name() string {
	return "grid"
}

func (g *Grid) InitPosition(*agent.Agent) (model.Position, error) {
	return model.Position{
		X: float64(g.rng.Intn(g.width)),
		Y: float64(g.rng.Intn(g.height)),
	}, nil
}

func (g *Grid) Move(a *agent.Agent) (model.Position, error) {
	x := a.Position.X + float64(a.Direction)*a.Speed
	return model.Position{X: mod(x, float64(g.width)), Y: a.Position.Y}, nil
}

func (g *Grid) Reindex(index PositionIndex) error {
	g.neighborhood.reindex(index)
	return nil
}

func (g *Grid) Detect(a *agent.Agent, index PositionIndex) error {
	cells := g.neighborhood.cells(index, a.Position, reach(a), float64(g.width), float64(g.height))
	sense(a, index, cells, func(from, to model.Position) (float64, float64) {
		return wrap(to.X-from.X, float64(g.width)), wrap(to.Y-from.Y, float64(g.height))
	})
	return nil
}
