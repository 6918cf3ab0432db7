// Package experiment builds a population from an experiment config, drives it
// over a topology and persists the outcome.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sensorsim/internal/agent"
	"sensorsim/internal/config"
	"sensorsim/internal/logging"
	"sensorsim/internal/model"
	"sensorsim/internal/nn"
	"sensorsim/internal/scape"
	"sensorsim/internal/stats"
	"sensorsim/internal/storage"
)

// TickObserver receives the state of every agent after each tick.
type TickObserver interface {
	ObserveTick(events []TickEvent)
}

type Config struct {
	Store    storage.Store
	Logger   *slog.Logger
	Observer TickObserver
	// Now and NewRunID default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

type Runner struct {
	store    storage.Store
	logger   *slog.Logger
	observer TickObserver
	now      func() time.Time
	newRunID func() string
}

// TickEvent is the state of one agent after a tick, and one line of the trace.
type TickEvent struct {
	RunID     string           `json:"run_id"`
	Tick      int              `json:"tick"`
	Agent     int              `json:"agent"`
	Position  model.Position   `json:"position"`
	Direction int              `json:"direction"`
	Sensor0   agent.SensorPair `json:"sensor_0"`
	Sensor1   agent.SensorPair `json:"sensor_1"`
	Score     int              `json:"score"`
}

func NewRunner(cfg Config) *Runner {
	r := &Runner{
		store:    cfg.Store,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		now:      cfg.Now,
		newRunID: cfg.NewRunID,
	}
	if r.store == nil {
		r.store = storage.NewMemoryStore()
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newRunID == nil {
		r.newRunID = uuid.NewString
	}
	return r
}

func (r *Runner) Init(ctx context.Context) error {
	return r.store.Init(ctx)
}

func (r *Runner) Store() storage.Store {
	return r.store
}

// Build validates exp and returns a map populated with exp.Agents.Count
// freshly constructed agents. Every random draw derives from exp.Seed.
func Build(exp config.Experiment) (*scape.Map, error) {
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}
	zeroDirection, err := exp.ZeroDirectionMode()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(exp.Seed))
	policy, predictor, err := buildTemplates(rng, exp.Network)
	if err != nil {
		return nil, err
	}

	topology, err := scape.New(exp.Topology.Name, scape.Options{
		Size:   exp.Topology.Size,
		Width:  exp.Topology.Width,
		Height: exp.Topology.Height,
		Seed:   rng.Int63(),
	})
	if err != nil {
		return nil, err
	}

	var opts []scape.MapOption
	if exp.Scoring {
		opts = append(opts, scape.WithPredictionScoring())
	}
	m, err := scape.NewMap(topology, opts...)
	if err != nil {
		return nil, err
	}

	ids := agent.NewIDGenerator(0)
	for i := 0; i < exp.Agents.Count; i++ {
		a, err := agent.New(ids, rng, exp.AgentParams(), policy, predictor, agent.WithZeroDirection(zeroDirection))
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if _, err := m.AddAgent(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildTemplates(rng *rand.Rand, cfg config.NetworkConfig) (*nn.Policy, *nn.Predictor, error) {
	policyNet, err := nn.NewRandom(rng, layerSizes(cfg.Hidden, 1), cfg.HiddenActivation, cfg.OutputActivation)
	if err != nil {
		return nil, nil, fmt.Errorf("policy network: %w", err)
	}
	policy, err := nn.NewPolicy(policyNet, rng.Int63())
	if err != nil {
		return nil, nil, err
	}

	predictorNet, err := nn.NewRandom(rng, layerSizes(cfg.Hidden, agent.PredictionSize), cfg.HiddenActivation, cfg.OutputActivation)
	if err != nil {
		return nil, nil, fmt.Errorf("predictor network: %w", err)
	}
	predictor, err := nn.NewPredictor(predictorNet, rng.Int63())
	if err != nil {
		return nil, nil, err
	}
	return policy, predictor, nil
}

func layerSizes(hidden []int, outputs int) []int {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, agent.ObservationSize)
	sizes = append(sizes, hidden...)
	return append(sizes, outputs)
}

// Run simulates exp.Ticks ticks and persists the run record together with the
// final agent snapshots. A canceled context stops the run between ticks and
// nothing is persisted.
func (r *Runner) Run(ctx context.Context, exp config.Experiment) (model.RunRecord, error) {
	m, err := Build(exp)
	if err != nil {
		return model.RunRecord{}, err
	}

	trace, err := logging.NewTraceWriter(exp.Logging.TracePath)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("open trace: %w", err)
	}
	defer trace.Close()

	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              r.newRunID(),
		Topology:        m.Topology().Name(),
		Seed:            exp.Seed,
		StartedAt:       r.now().UTC(),
	}
	logger := r.logger.With("run_id", run.ID)
	logger.Info("run started",
		"topology", run.Topology,
		"agents", exp.Agents.Count,
		"ticks", exp.Ticks,
		"seed", exp.Seed,
		"scoring", exp.Scoring,
	)

	agents := m.Agents()
	before := make([]int, len(agents))
	deltas := make([]int, len(agents))
	for tick := 0; tick < exp.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			logger.Info("run canceled", "tick", tick)
			return model.RunRecord{}, fmt.Errorf("run %s canceled at tick %d: %w", run.ID, tick, err)
		}

		for i, a := range agents {
			before[i] = a.Score
		}
		if err := m.Step(); err != nil {
			return model.RunRecord{}, fmt.Errorf("run %s tick %d: %w", run.ID, tick, err)
		}

		if m.Scoring() {
			for i, a := range agents {
				deltas[i] = a.Score - before[i]
			}
			accuracy := stats.MeanAccuracy(deltas)
			run.AccuracyHistory = append(run.AccuracyHistory, accuracy)
			logger.Debug("tick", "tick", tick, "accuracy", accuracy)
		} else {
			logger.Debug("tick", "tick", tick)
		}

		events := make([]TickEvent, 0, len(agents))
		for _, a := range agents {
			logger.Log(ctx, logging.LevelTrace, "agent state", "tick", tick, "state", a.String())
			event := TickEvent{
				RunID:     run.ID,
				Tick:      tick,
				Agent:     a.ID,
				Position:  a.Position,
				Direction: a.Direction,
				Sensor0:   a.Sensor0,
				Sensor1:   a.Sensor1,
				Score:     a.Score,
			}
			if err := trace.Write(event); err != nil {
				return model.RunRecord{}, fmt.Errorf("write trace: %w", err)
			}
			events = append(events, event)
		}
		if r.observer != nil {
			r.observer.ObserveTick(events)
		}
	}

	if err := trace.Close(); err != nil {
		return model.RunRecord{}, fmt.Errorf("close trace: %w", err)
	}

	run.FinishedAt = r.now().UTC()
	run.Summary = stats.Summarize(agents, m.Ticks())

	snapshots := make([]model.AgentSnapshot, 0, len(agents))
	for _, a := range agents {
		snap := stats.Snapshot(a, m.Ticks())
		snap.VersionedRecord = storage.CurrentVersion()
		snapshots = append(snapshots, snap)
	}

	if err := r.store.SaveRun(ctx, run); err != nil {
		return model.RunRecord{}, fmt.Errorf("save run: %w", err)
	}
	if err := r.store.SaveAgentSnapshots(ctx, run.ID, snapshots); err != nil {
		return model.RunRecord{}, fmt.Errorf("save agent snapshots: %w", err)
	}
	if exp.ArtifactsDir != "" {
		dir, err := stats.WriteRunArtifacts(exp.ArtifactsDir, stats.RunArtifacts{Run: run, Agents: snapshots})
		if err != nil {
			return model.RunRecord{}, fmt.Errorf("write artifacts: %w", err)
		}
		logger.Debug("artifacts written", "dir", dir)
	}

	logger.Info("run finished",
		"ticks", run.Summary.Ticks,
		"mean_score", run.Summary.MeanScore,
		"best_score", run.Summary.BestScore,
		"mean_accuracy", run.Summary.MeanAccuracy,
	)
	return run, nil
}
