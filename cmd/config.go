package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig is the top-level experiment configuration. It can be
// loaded from YAML and overridden by CLI flags.
type ExperimentConfig struct {
	NumNodes       int   `yaml:"num_nodes"`
	PacketsPerRing int   `yaml:"packets_per_ring"`
	Seed           int64 `yaml:"seed"`

	// HorizonCycles bounds the virtual time of the run. 0 means run until
	// the event queue drains.
	HorizonCycles int64 `yaml:"horizon_cycles,omitempty"`

	RingBufCapacity int `yaml:"ring_buf_capacity"`
	ProcBufCapacity int `yaml:"proc_buf_capacity"`
	RingDepth       int `yaml:"ring_pipeline_depth"`
	ProcDepth       int `yaml:"proc_pipeline_depth"`
	Throughput      int `yaml:"throughput_bytes_per_cycle"`

	MinProcessingDelay int `yaml:"min_processing_delay"`
	MaxProcessingDelay int `yaml:"max_processing_delay"`
}

// DefaultExperimentConfig returns the configuration of the standard six node
// experiment.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		NumNodes:           6,
		PacketsPerRing:     10,
		Seed:               1,
		RingBufCapacity:    4,
		ProcBufCapacity:    2,
		RingDepth:          4,
		ProcDepth:          2,
		Throughput:         8,
		MinProcessingDelay: 5,
		MaxProcessingDelay: 30,
	}
}

// LoadExperimentConfig reads an ExperimentConfig from a YAML file. Fields
// missing from the file keep their default values.
func LoadExperimentConfig(path string) (ExperimentConfig, error) {
	cfg := DefaultExperimentConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for values that would make the network
// unbuildable.
func (c ExperimentConfig) Validate() error {
	if c.NumNodes < 2 {
		return fmt.Errorf("num_nodes must be at least 2, got %d", c.NumNodes)
	}

	if c.PacketsPerRing < 0 {
		return fmt.Errorf("packets_per_ring must not be negative, got %d",
			c.PacketsPerRing)
	}

	if c.RingBufCapacity <= 0 || c.ProcBufCapacity <= 0 {
		return fmt.Errorf("buffer capacities must be positive")
	}

	if c.RingDepth <= 0 || c.ProcDepth <= 0 {
		return fmt.Errorf("pipeline depths must be positive")
	}

	if c.Throughput <= 0 {
		return fmt.Errorf("throughput_bytes_per_cycle must be positive")
	}

	if c.MinProcessingDelay < 0 ||
		c.MaxProcessingDelay < c.MinProcessingDelay {
		return fmt.Errorf("invalid processing delay range [%d, %d]",
			c.MinProcessingDelay, c.MaxProcessingDelay)
	}

	return nil
}
