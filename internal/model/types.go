package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Position is a topology-defined coordinate. One-dimensional topologies leave Y at zero.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AgentSnapshot struct {
	VersionedRecord
	ID                     int        `json:"id"`
	SensorRange0           float64    `json:"sensor_range_0"`
	SensorRange1           float64    `json:"sensor_range_1"`
	Speed                  float64    `json:"speed"`
	Noise                  float64    `json:"noise"`
	Direction              int        `json:"direction"`
	Position               Position   `json:"position"`
	Score                  int        `json:"score"`
	Sensor0ActivationCount [2]int     `json:"sensor_0_activation_count"`
	Sensor1ActivationCount [2]int     `json:"sensor_1_activation_count"`
	PositionHistory        []Position `json:"position_history,omitempty"`
	Sensor0Entropy         [2]float64 `json:"sensor_0_entropy"`
	Sensor1Entropy         [2]float64 `json:"sensor_1_entropy"`
	PredictionAccuracy     float64    `json:"prediction_accuracy"`
}

type RunSummary struct {
	Agents            int        `json:"agents"`
	Ticks             int        `json:"ticks"`
	MeanScore         float64    `json:"mean_score"`
	BestScore         int        `json:"best_score"`
	MeanAccuracy      float64    `json:"mean_accuracy"`
	MeanSensorEntropy [2]float64 `json:"mean_sensor_entropy"`
}

type RunRecord struct {
	VersionedRecord
	ID              string     `json:"id"`
	Topology        string     `json:"topology"`
	Seed            int64      `json:"seed"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	Summary         RunSummary `json:"summary"`
	AccuracyHistory []float64  `json:"accuracy_history,omitempty"`
}
