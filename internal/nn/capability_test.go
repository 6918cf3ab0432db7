package nn

import (
	"math/rand"
	"testing"
)

func newTestNetworks(t *testing.T) (Network, Network) {
	t.Helper()
	rng := rand.New(rand.NewSource(5))
	policy, err := NewRandom(rng, []int{5, 6, 1}, "tanh", "sigmoid")
	if err != nil {
		t.Fatalf("policy network: %v", err)
	}
	predictor, err := NewRandom(rng, []int{5, 6, 4}, "tanh", "sigmoid")
	if err != nil {
		t.Fatalf("predictor network: %v", err)
	}
	return policy, predictor
}

func TestPolicyOutputInUnitRange(t *testing.T) {
	policyNet, _ := newTestNetworks(t)
	policy, err := NewPolicy(policyNet, 1)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	noisy := policy.Clone(0.5)
	for i := 0; i < 20; i++ {
		out, err := noisy.Forward([]float64{1, 0, 1, 0, 1})
		if err != nil {
			t.Fatalf("forward: %v", err)
		}
		if len(out) != 1 || out[0] < 0 || out[0] > 1 {
			t.Fatalf("unexpected policy output: %v", out)
		}
	}
}

func TestPolicyRejectsWrongShape(t *testing.T) {
	_, predictorNet := newTestNetworks(t)
	if _, err := NewPolicy(predictorNet, 1); err == nil {
		t.Fatal("expected output shape error")
	}
}

func TestPredictorBatchForward(t *testing.T) {
	_, predictorNet := newTestNetworks(t)
	predictor, err := NewPredictor(predictorNet, 1)
	if err != nil {
		t.Fatalf("new predictor: %v", err)
	}
	out, err := predictor.Forward([][]float64{{0, 0, 0, 0, 0}, {1, 1, 1, 1, 1}})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 4 || len(out[1]) != 4 {
		t.Fatalf("unexpected predictor output shape: %v", out)
	}
	if _, err := predictor.Forward([][]float64{{0, 0}}); err == nil {
		t.Fatal("expected row size error")
	}
}

func TestNoiselessClonesAgree(t *testing.T) {
	policyNet, _ := newTestNetworks(t)
	policy, err := NewPolicy(policyNet, 1)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	a := policy.Clone(0)
	b := policy.Clone(0)
	input := []float64{0, 1, 0, 1, 0}
	outA, _ := a.Forward(input)
	outB, _ := b.Forward(input)
	if outA[0] != outB[0] {
		t.Fatalf("noiseless clones disagree: %f vs %f", outA[0], outB[0])
	}

	a.(*Policy).net.Layers[0].Weights[0][0] += 10
	if policy.net.Layers[0].Weights[0][0] == a.(*Policy).net.Layers[0].Weights[0][0] {
		t.Fatal("clone shares weights with template")
	}
}
