package stats

import (
	"math"

	"sensorsim/internal/agent"
	"sensorsim/internal/model"
)

// BinaryEntropy returns the entropy in bits of a Bernoulli(p) variable.
func BinaryEntropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// SensorEntropy is the entropy of a sensor slot that fired count times over
// ticks detections.
func SensorEntropy(count, ticks int) float64 {
	if ticks <= 0 {
		return 0
	}
	return BinaryEntropy(float64(count) / float64(ticks))
}

// Accuracy is the share of correctly predicted slots, four per tick.
func Accuracy(score, ticks int) float64 {
	if ticks <= 0 {
		return 0
	}
	return float64(score) / float64(agent.PredictionSize*ticks)
}

// Snapshot extends the agent snapshot with its entropy and accuracy figures.
func Snapshot(a *agent.Agent, ticks int) model.AgentSnapshot {
	snap := a.Snapshot()
	for i := range snap.Sensor0Entropy {
		snap.Sensor0Entropy[i] = SensorEntropy(a.Sensor0ActivationCount[i], ticks)
		snap.Sensor1Entropy[i] = SensorEntropy(a.Sensor1ActivationCount[i], ticks)
	}
	snap.PredictionAccuracy = Accuracy(a.Score, ticks)
	return snap
}

func Summarize(agents []*agent.Agent, ticks int) model.RunSummary {
	summary := model.RunSummary{Agents: len(agents), Ticks: ticks}
	if len(agents) == 0 {
		return summary
	}

	total := 0
	for i, a := range agents {
		total += a.Score
		if i == 0 || a.Score > summary.BestScore {
			summary.BestScore = a.Score
		}
		snap := Snapshot(a, ticks)
		summary.MeanSensorEntropy[0] += (snap.Sensor0Entropy[0] + snap.Sensor0Entropy[1]) / 2
		summary.MeanSensorEntropy[1] += (snap.Sensor1Entropy[0] + snap.Sensor1Entropy[1]) / 2
	}
	n := float64(len(agents))
	summary.MeanScore = float64(total) / n
	summary.MeanAccuracy = Accuracy(total, ticks) / n
	summary.MeanSensorEntropy[0] /= n
	summary.MeanSensorEntropy[1] /= n
	return summary
}

// MeanAccuracy is the mean share of correct slots for a single tick given
// each agent's score delta.
func MeanAccuracy(deltas []int) float64 {
	if len(deltas) == 0 {
		return 0
	}
	total := 0
	for _, d := range deltas {
		total += d
	}
	return float64(total) / float64(agent.PredictionSize*len(deltas))
}
