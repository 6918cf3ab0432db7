package nn

import (
	"fmt"
	"math/rand"

	"sensorsim/internal/agent"
)

// Policy adapts a single-output network to the agent policy capability.
type Policy struct {
	net   Network
	noise float64
	rng   *rand.Rand
}

func NewPolicy(net Network, seed int64) (*Policy, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if net.Inputs() != agent.ObservationSize {
		return nil, fmt.Errorf("policy network needs %d inputs, got %d", agent.ObservationSize, net.Inputs())
	}
	if net.Outputs() != 1 {
		return nil, fmt.Errorf("policy network needs 1 output, got %d", net.Outputs())
	}
	return &Policy{net: net, rng: rand.New(rand.NewSource(seed))}, nil
}

func (p *Policy) Forward(input []float64) ([]float64, error) {
	return p.net.forward(input, perturbation(p.rng, p.noise))
}

// Clone deep-copies the network. The clone draws its noise from a source
// seeded by the template, so clones are reproducible and independent.
func (p *Policy) Clone(noise float64) agent.Policy {
	return &Policy{
		net:   p.net.Clone(),
		noise: noise,
		rng:   rand.New(rand.NewSource(p.rng.Int63())),
	}
}

func (p *Policy) Network() Network {
	return p.net.Clone()
}

// Predictor adapts a four-output network to the agent predictor capability.
// Each row of a batch is evaluated independently.
type Predictor struct {
	net   Network
	noise float64
	rng   *rand.Rand
}

func NewPredictor(net Network, seed int64) (*Predictor, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if net.Inputs() != agent.ObservationSize {
		return nil, fmt.Errorf("predictor network needs %d inputs, got %d", agent.ObservationSize, net.Inputs())
	}
	if net.Outputs() != agent.PredictionSize {
		return nil, fmt.Errorf("predictor network needs %d outputs, got %d", agent.PredictionSize, net.Outputs())
	}
	return &Predictor{net: net, rng: rand.New(rand.NewSource(seed))}, nil
}

func (p *Predictor) Forward(batch [][]float64) ([][]float64, error) {
	out := make([][]float64, 0, len(batch))
	perturb := perturbation(p.rng, p.noise)
	for i, row := range batch {
		values, err := p.net.forward(row, perturb)
		if err != nil {
			return nil, fmt.Errorf("batch row %d: %w", i, err)
		}
		out = append(out, values)
	}
	return out, nil
}

func (p *Predictor) Clone(noise float64) agent.Predictor {
	return &Predictor{
		net:   p.net.Clone(),
		noise: noise,
		rng:   rand.New(rand.NewSource(p.rng.Int63())),
	}
}

func (p *Predictor) Network() Network {
	return p.net.Clone()
}

func perturbation(rng *rand.Rand, noise float64) func() float64 {
	if noise == 0 {
		return nil
	}
	return func() float64 {
		return rng.NormFloat64() * noise
	}
}
