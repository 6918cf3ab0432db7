package scape

import (
	"math/rand"
	"testing"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

type countingPolicy struct {
	out    float64
	calls  int
	inputs [][]float64
}

func (p *countingPolicy) Forward(input []float64) ([]float64, error) {
	p.calls++
	p.inputs = append(p.inputs, append([]float64(nil), input...))
	return []float64{p.out}, nil
}

func (p *countingPolicy) Clone(float64) agent.Policy {
	return p
}

type countingPredictor struct {
	out   []float64
	calls int
}

func (p *countingPredictor) Forward(batch [][]float64) ([][]float64, error) {
	p.calls++
	out := make([][]float64, len(batch))
	for i := range batch {
		out[i] = append([]float64(nil), p.out...)
	}
	return out, nil
}

func (p *countingPredictor) Clone(float64) agent.Predictor {
	return p
}

// pinned places agents on fixed starting positions keyed by agent id.
type pinned struct {
	Topology
	starts map[int]model.Position
}

func (p pinned) InitPosition(a *agent.Agent) (model.Position, error) {
	return p.starts[a.ID], nil
}

type testAgentSpec struct {
	params    agent.Params
	policy    agent.Policy
	predictor agent.Predictor
}

func newTestAgents(t *testing.T, specs ...testAgentSpec) []*agent.Agent {
	t.Helper()
	ids := agent.NewIDGenerator(0)
	rng := rand.New(rand.NewSource(1))
	agents := make([]*agent.Agent, 0, len(specs))
	for _, spec := range specs {
		if spec.policy == nil {
			spec.policy = &countingPolicy{out: 1}
		}
		if spec.predictor == nil {
			spec.predictor = &countingPredictor{out: []float64{0, 0, 0, 0}}
		}
		a, err := agent.New(ids, rng, spec.params, spec.policy, spec.predictor)
		if err != nil {
			t.Fatalf("new agent: %v", err)
		}
		agents = append(agents, a)
	}
	return agents
}
