package agent

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"sensorsim/internal/model"
)

const (
	// ObservationSize is the length of the vector fed to both capabilities.
	ObservationSize = 5
	// PredictionSize is the number of sensor slots a predictor forecasts.
	PredictionSize = 4
)

var (
	ErrPolicyOutput    = errors.New("policy output violates contract")
	ErrPredictorOutput = errors.New("predictor output violates contract")
)

// SensorPair holds one binary reading per side: slot 0 is the negative side,
// slot 1 the positive side.
type SensorPair [2]bool

// PredictionPair is a SensorPair that stays unset until the first prediction.
// An unset prediction never matches an actual reading.
type PredictionPair struct {
	Values SensorPair
	Set    bool
}

type ActivationCount [2]int

// ZeroDirection decides what happens when the policy output rounds to 0.
type ZeroDirection int

const (
	// ZeroStays keeps the rounded 0: the agent stands still for the tick.
	ZeroStays ZeroDirection = iota
	// ZeroKeepsPrevious ignores a 0 and keeps the previous heading.
	ZeroKeepsPrevious
)

type Params struct {
	SensorRange0 float64
	SensorRange1 float64
	Speed        float64
	Noise        float64
}

type Option func(*Agent)

func WithZeroDirection(mode ZeroDirection) Option {
	return func(a *Agent) {
		a.zeroDirection = mode
	}
}

type Agent struct {
	ID int

	SensorRange0           float64
	Sensor0                SensorPair
	Prediction0            PredictionPair
	Sensor0ActivationCount ActivationCount

	SensorRange1           float64
	Sensor1                SensorPair
	Prediction1            PredictionPair
	Sensor1ActivationCount ActivationCount

	Speed float64
	Noise float64

	Direction int
	Position  model.Position
	Placed    bool

	// Score is the number of correct slot predictions since construction or the last reset.
	Score           int
	PositionHistory []model.Position

	policy        Policy
	predictor     Predictor
	zeroDirection ZeroDirection
}

// New builds an agent owning its own clones of the policy and predictor templates.
func New(ids *IDGenerator, rng *rand.Rand, params Params, policy Policy, predictor Predictor, opts ...Option) (*Agent, error) {
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy template is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("predictor template is required")
	}
	if params.SensorRange0 < 0 || params.SensorRange1 < 0 {
		return nil, fmt.Errorf("sensor ranges must be >= 0: %v/%v", params.SensorRange0, params.SensorRange1)
	}
	if params.Speed < 0 {
		return nil, fmt.Errorf("speed must be >= 0: %v", params.Speed)
	}

	a := &Agent{
		ID:           ids.Next(),
		SensorRange0: params.SensorRange0,
		SensorRange1: params.SensorRange1,
		Speed:        params.Speed,
		Noise:        params.Noise,
		Direction:    randomDirection(rng),
		policy:       policy.Clone(params.Noise),
		predictor:    predictor.Clone(params.Noise),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Reset clears the per-episode state. Id, ranges, speed, noise, networks and
// predictions survive.
func (a *Agent) Reset(rng *rand.Rand) {
	a.ResetSensors()
	a.Direction = randomDirection(rng)

	a.Score = 0
	a.PositionHistory = nil

	a.Sensor0ActivationCount = ActivationCount{}
	a.Sensor1ActivationCount = ActivationCount{}
}

func (a *Agent) ResetSensors() {
	a.Sensor0 = SensorPair{}
	a.Sensor1 = SensorPair{}
}

// Observation encodes [direction>0, s0[0], s0[1], s1[0], s1[1]] as 0/1 values.
func (a *Agent) Observation() []float64 {
	return []float64{
		boolToFloat(a.Direction > 0),
		boolToFloat(a.Sensor0[0]),
		boolToFloat(a.Sensor0[1]),
		boolToFloat(a.Sensor1[0]),
		boolToFloat(a.Sensor1[1]),
	}
}

// TakeDecision sets Direction from the policy output o as round(2o-1).
func (a *Agent) TakeDecision() error {
	out, err := a.policy.Forward(a.Observation())
	if err != nil {
		return fmt.Errorf("agent %d policy: %w", a.ID, err)
	}
	if len(out) != 1 {
		return fmt.Errorf("%w: agent %d got %d values, want 1", ErrPolicyOutput, a.ID, len(out))
	}
	o := out[0]
	if math.IsNaN(o) || o < 0 || o > 1 {
		return fmt.Errorf("%w: agent %d output %v outside [0, 1]", ErrPolicyOutput, a.ID, o)
	}

	direction := int(math.RoundToEven(2*o - 1))
	if direction == 0 && a.zeroDirection == ZeroKeepsPrevious {
		return nil
	}
	a.Direction = direction
	return nil
}

// PredictSensors forecasts the sensor readout that follows the next move.
func (a *Agent) PredictSensors() error {
	out, err := a.predictor.Forward([][]float64{a.Observation()})
	if err != nil {
		return fmt.Errorf("agent %d predictor: %w", a.ID, err)
	}
	if len(out) != 1 {
		return fmt.Errorf("%w: agent %d got batch of %d, want 1", ErrPredictorOutput, a.ID, len(out))
	}
	row := out[0]
	if len(row) != PredictionSize {
		return fmt.Errorf("%w: agent %d got %d values, want %d", ErrPredictorOutput, a.ID, len(row), PredictionSize)
	}

	var slots [PredictionSize]bool
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: agent %d value %d is %v", ErrPredictorOutput, a.ID, i, v)
		}
		slots[i] = math.RoundToEven(v) != 0
	}
	a.Prediction0 = PredictionPair{Values: SensorPair{slots[0], slots[1]}, Set: true}
	a.Prediction1 = PredictionPair{Values: SensorPair{slots[2], slots[3]}, Set: true}
	return nil
}

// ComputeScore adds the number of correctly predicted slots to Score and
// returns it. Call after detection and before the next PredictSensors.
func (a *Agent) ComputeScore() int {
	delta := matches(a.Sensor0, a.Prediction0) + matches(a.Sensor1, a.Prediction1)
	a.Score += delta
	return delta
}

// SetSensors stores a detection result and counts every slot that fired.
func (a *Agent) SetSensors(s0, s1 SensorPair) {
	a.Sensor0 = s0
	a.Sensor1 = s1
	for i := range s0 {
		if s0[i] {
			a.Sensor0ActivationCount[i]++
		}
		if s1[i] {
			a.Sensor1ActivationCount[i]++
		}
	}
}

// Place records the starting position without touching the history.
func (a *Agent) Place(p model.Position) {
	a.Position = p
	a.Placed = true
}

func (a *Agent) MoveTo(p model.Position) {
	a.Position = p
	a.Placed = true
	a.PositionHistory = append(a.PositionHistory, p)
}

func (a *Agent) Snapshot() model.AgentSnapshot {
	return model.AgentSnapshot{
		ID:                     a.ID,
		SensorRange0:           a.SensorRange0,
		SensorRange1:           a.SensorRange1,
		Speed:                  a.Speed,
		Noise:                  a.Noise,
		Direction:              a.Direction,
		Position:               a.Position,
		Score:                  a.Score,
		Sensor0ActivationCount: a.Sensor0ActivationCount,
		Sensor1ActivationCount: a.Sensor1ActivationCount,
		PositionHistory:        append([]model.Position(nil), a.PositionHistory...),
	}
}

func (a *Agent) String() string {
	position := "unplaced"
	if a.Placed {
		position = fmt.Sprintf("(%g, %g)", a.Position.X, a.Position.Y)
	}
	return fmt.Sprintf("agent %d: position=%s direction=%d sensors0=%v sensors1=%v score=%d",
		a.ID, position, a.Direction, a.Sensor0, a.Sensor1, a.Score)
}

func matches(actual SensorPair, predicted PredictionPair) int {
	if !predicted.Set {
		return 0
	}
	n := 0
	for i := range actual {
		if actual[i] == predicted.Values[i] {
			n++
		}
	}
	return n
}

func randomDirection(rng *rand.Rand) int {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
