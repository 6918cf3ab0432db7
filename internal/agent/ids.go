package agent

import "sync/atomic"

// IDGenerator hands out monotonically increasing agent ids. Each simulation
// owns its own generator so ids never leak between runs or tests.
type IDGenerator struct {
	next atomic.Int64
}

func NewIDGenerator(start int) *IDGenerator {
	g := &IDGenerator{}
	g.next.Store(int64(start))
	return g
}

func (g *IDGenerator) Next() int {
	return int(g.next.Add(1) - 1)
}

// Peek returns the id the next call to Next will assign.
func (g *IDGenerator) Peek() int {
	return int(g.next.Load())
}
