package nn

import (
	"fmt"
	"math/rand"
)

// Layer is a dense layer. Weights are indexed [output][input].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type Network struct {
	Layers []Layer `json:"layers"`
}

// NewRandom builds a network with the given layer sizes (inputs first) and
// weights drawn uniformly from [-1, 1].
func NewRandom(rng *rand.Rand, sizes []int, hidden, output string) (Network, error) {
	if rng == nil {
		return Network{}, fmt.Errorf("random source is required")
	}
	if len(sizes) < 2 {
		return Network{}, fmt.Errorf("at least input and output sizes are required, got %v", sizes)
	}
	for _, size := range sizes {
		if size <= 0 {
			return Network{}, fmt.Errorf("layer sizes must be > 0, got %v", sizes)
		}
	}

	layers := make([]Layer, 0, len(sizes)-1)
	for i := 1; i < len(sizes); i++ {
		activation := hidden
		if i == len(sizes)-1 {
			activation = output
		}
		layer := Layer{
			Weights:    make([][]float64, sizes[i]),
			Bias:       make([]float64, sizes[i]),
			Activation: activation,
		}
		for o := range layer.Weights {
			layer.Weights[o] = make([]float64, sizes[i-1])
			for in := range layer.Weights[o] {
				layer.Weights[o][in] = rng.Float64()*2 - 1
			}
			layer.Bias[o] = rng.Float64()*2 - 1
		}
		layers = append(layers, layer)
	}

	net := Network{Layers: layers}
	if err := net.Validate(); err != nil {
		return Network{}, err
	}
	return net, nil
}

func (n Network) Inputs() int {
	if len(n.Layers) == 0 || len(n.Layers[0].Weights) == 0 {
		return 0
	}
	return len(n.Layers[0].Weights[0])
}

func (n Network) Outputs() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return len(n.Layers[len(n.Layers)-1].Weights)
}

func (n Network) Validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	width := n.Inputs()
	for i, layer := range n.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("layer %d has no neurons", i)
		}
		if len(layer.Bias) != len(layer.Weights) {
			return fmt.Errorf("layer %d bias size mismatch: got=%d want=%d", i, len(layer.Bias), len(layer.Weights))
		}
		for o, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d neuron %d fan-in mismatch: got=%d want=%d", i, o, len(row), width)
			}
		}
		if _, err := GetActivation(layer.Activation); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		width = len(layer.Weights)
	}
	return nil
}

func (n Network) Forward(input []float64) ([]float64, error) {
	return n.forward(input, nil)
}

// forward runs the network, adding perturb() to every pre-activation when set.
func (n Network) forward(input []float64, perturb func() float64) ([]float64, error) {
	if len(input) != n.Inputs() {
		return nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(input), n.Inputs())
	}

	values := input
	for i, layer := range n.Layers {
		fn, err := GetActivation(layer.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		next := make([]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			total := layer.Bias[o]
			for in, w := range row {
				total += values[in] * w
			}
			if perturb != nil {
				total += perturb()
			}
			next[o] = fn(total)
		}
		values = next
	}
	return values, nil
}

func (n Network) Clone() Network {
	layers := make([]Layer, len(n.Layers))
	for i, layer := range n.Layers {
		weights := make([][]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			weights[o] = append([]float64(nil), row...)
		}
		layers[i] = Layer{
			Weights:    weights,
			Bias:       append([]float64(nil), layer.Bias...),
			Activation: layer.Activation,
		}
	}
	return Network{Layers: layers}
}
