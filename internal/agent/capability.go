package agent

// Policy maps an observation vector to a single movement signal in [0, 1].
type Policy interface {
	Forward(input []float64) ([]float64, error)
	// Clone returns an independent copy that shares no mutable state with the
	// receiver. Noise is opaque to the agent and only forwarded here.
	Clone(noise float64) Policy
}

// Predictor maps a batch of observation vectors to predicted sensor readouts,
// four values per row.
type Predictor interface {
	Forward(batch [][]float64) ([][]float64, error)
	Clone(noise float64) Predictor
}
