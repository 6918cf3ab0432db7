package scape

import (
	"math"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

const rangeTolerance = 1e-9

// offsetFunc returns the signed offset from one position to another along the
// travel axis (dx) and across it (dy).
type offsetFunc func(from, to model.Position) (dx, dy float64)

// sense fills both sensor pairs of self from every other agent standing on
// one of cells. Slot 0 fires for agents behind on the travel axis, slot 1 for
// agents ahead, and an agent sharing the cell fires both.
func sense(self *agent.Agent, index PositionIndex, cells []model.Position, offset offsetFunc) {
	var s0, s1 agent.SensorPair
	for _, position := range cells {
		dx, dy := offset(self.Position, position)
		for _, other := range index[position] {
			if other == self {
				continue
			}
			fire(&s0, dx, dy, self.SensorRange0)
			fire(&s1, dx, dy, self.SensorRange1)
		}
	}
	self.SetSensors(s0, s1)
}

func fire(pair *agent.SensorPair, dx, dy, sensorRange float64) {
	if math.Abs(dx) > sensorRange+rangeTolerance || math.Abs(dy) > sensorRange+rangeTolerance {
		return
	}
	switch {
	case math.Abs(dx) <= rangeTolerance:
		pair[0], pair[1] = true, true
	case dx < 0:
		pair[0] = true
	default:
		pair[1] = true
	}
}

// wrap maps d onto the shortest signed offset on a circle of the given size.
func wrap(d, size float64) float64 {
	d = math.Mod(d, size)
	if d > size/2 {
		d -= size
	} else if d <= -size/2 {
		d += size
	}
	return d
}

// mod is the non-negative remainder of x by size.
func mod(x, size float64) float64 {
	x = math.Mod(x, size)
	if x < 0 {
		x += size
	}
	return x
}

func reach(a *agent.Agent) float64 {
	return math.Max(a.SensorRange0, a.SensorRange1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
