// Package config loads experiment settings from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"sensorsim/internal/agent"
)

// Experiment describes a single simulation run.
type Experiment struct {
	// Topology selects the world the agents live on.
	Topology TopologyConfig `json:"topology" yaml:"topology"`

	// Agents holds the parameters shared by every agent of the run.
	Agents AgentsConfig `json:"agents" yaml:"agents"`

	// Network shapes the policy and predictor templates.
	Network NetworkConfig `json:"network" yaml:"network"`

	// Ticks is the number of steps to simulate.
	Ticks int `json:"ticks" yaml:"ticks"`

	// Seed drives every random draw of the run. Equal seeds replay equal runs.
	Seed int64 `json:"seed" yaml:"seed"`

	// Scoring enables prediction and scoring inside every tick.
	Scoring bool `json:"scoring" yaml:"scoring"`

	Storage StorageConfig `json:"storage" yaml:"storage"`

	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// ArtifactsDir receives run.json, agents.json and the accuracy series.
	// Empty disables artifact output.
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir"`
}

type TopologyConfig struct {
	// Name is a registered topology: "line", "ring" or "grid" out of the box.
	Name string `json:"name" yaml:"name"`
	// Size is the line length or ring circumference.
	Size   float64 `json:"size" yaml:"size"`
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
}

type AgentsConfig struct {
	Count        int     `json:"count" yaml:"count"`
	SensorRange0 float64 `json:"sensor_range_0" yaml:"sensor_range_0"`
	SensorRange1 float64 `json:"sensor_range_1" yaml:"sensor_range_1"`
	Speed        float64 `json:"speed" yaml:"speed"`
	Noise        float64 `json:"noise" yaml:"noise"`
	// ZeroDirection is "stay" (default) or "keep".
	ZeroDirection string `json:"zero_direction" yaml:"zero_direction"`
}

type NetworkConfig struct {
	Hidden           []int  `json:"hidden" yaml:"hidden"`
	HiddenActivation string `json:"hidden_activation" yaml:"hidden_activation"`
	OutputActivation string `json:"output_activation" yaml:"output_activation"`
}

type StorageConfig struct {
	// Kind is "memory" or "sqlite". Empty selects the build default.
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
}

type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`
	// TracePath, when set, receives one JSON line per agent per tick.
	TracePath string `json:"trace_path" yaml:"trace_path"`
}

func Default() *Experiment {
	return &Experiment{
		Topology: TopologyConfig{
			Name:   "ring",
			Size:   100,
			Width:  20,
			Height: 20,
		},
		Agents: AgentsConfig{
			Count:         10,
			SensorRange0:  2,
			SensorRange1:  5,
			Speed:         1,
			Noise:         0,
			ZeroDirection: "stay",
		},
		Network: NetworkConfig{
			Hidden:           []int{8},
			HiddenActivation: "tanh",
			OutputActivation: "sigmoid",
		},
		Ticks:   100,
		Seed:    1,
		Scoring: true,
		Storage: StorageConfig{
			Path: "sensorsim.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults, overlaid by path when it is not empty, then by
// environment variables.
func Load(path string) (*Experiment, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their default value.
func LoadFromFile(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	config.Storage.Path = os.ExpandEnv(config.Storage.Path)
	config.ArtifactsDir = os.ExpandEnv(config.ArtifactsDir)
	config.Logging.TracePath = os.ExpandEnv(config.Logging.TracePath)
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Experiment) Validate() error {
	if c.Topology.Name == "" {
		return fmt.Errorf("topology name is required")
	}
	if c.Topology.Size < 0 {
		return fmt.Errorf("topology size must be non-negative, got %v", c.Topology.Size)
	}
	if c.Topology.Width < 0 || c.Topology.Height < 0 {
		return fmt.Errorf("topology width and height must be non-negative, got %dx%d", c.Topology.Width, c.Topology.Height)
	}
	if c.Agents.Count < 1 {
		return fmt.Errorf("agent count must be at least 1, got %d", c.Agents.Count)
	}
	if c.Agents.SensorRange0 < 0 || c.Agents.SensorRange1 < 0 {
		return fmt.Errorf("sensor ranges must be non-negative, got %v/%v", c.Agents.SensorRange0, c.Agents.SensorRange1)
	}
	if c.Agents.Speed < 0 {
		return fmt.Errorf("speed must be non-negative, got %v", c.Agents.Speed)
	}
	if c.Agents.Noise < 0 {
		return fmt.Errorf("noise must be non-negative, got %v", c.Agents.Noise)
	}
	if _, err := c.ZeroDirectionMode(); err != nil {
		return err
	}
	for i, width := range c.Network.Hidden {
		if width <= 0 {
			return fmt.Errorf("hidden layer %d must have a positive width, got %d", i, width)
		}
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Ticks)
	}

	validStores := map[string]bool{"": true, "memory": true, "sqlite": true}
	if !validStores[c.Storage.Kind] {
		return fmt.Errorf("invalid store kind: %s (valid: memory, sqlite)", c.Storage.Kind)
	}
	if c.Storage.Kind == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("sqlite store requires a path")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// ZeroDirectionMode maps the configured zero_direction onto the agent option.
func (c *Experiment) ZeroDirectionMode() (agent.ZeroDirection, error) {
	switch c.Agents.ZeroDirection {
	case "", "stay":
		return agent.ZeroStays, nil
	case "keep":
		return agent.ZeroKeepsPrevious, nil
	default:
		return 0, fmt.Errorf("invalid zero_direction: %s (valid: stay, keep)", c.Agents.ZeroDirection)
	}
}

// AgentParams returns the per-agent construction parameters.
func (c *Experiment) AgentParams() agent.Params {
	return agent.Params{
		SensorRange0: c.Agents.SensorRange0,
		SensorRange1: c.Agents.SensorRange1,
		Speed:        c.Agents.Speed,
		Noise:        c.Agents.Noise,
	}
}

func applyEnvOverrides(config *Experiment) {
	if v := os.Getenv("SENSORSIM_TOPOLOGY"); v != "" {
		config.Topology.Name = v
	}
	if v := os.Getenv("SENSORSIM_AGENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Agents.Count = n
		}
	}
	if v := os.Getenv("SENSORSIM_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Ticks = n
		}
	}
	if v := os.Getenv("SENSORSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Seed = n
		}
	}
	if v := os.Getenv("SENSORSIM_NOISE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Agents.Noise = f
		}
	}
	if v := os.Getenv("SENSORSIM_STORE"); v != "" {
		config.Storage.Kind = v
	}
	if v := os.Getenv("SENSORSIM_DB_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("SENSORSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
