package config

import "fmt"

// OptimizerConfig controls the optimisation run.
type OptimizerConfig struct {
	// Instances is the number of algorithm instances run concurrently.
	Instances int `json:"instances"`
	// Workers bounds concurrent evaluations per batch; zero uses GOMAXPROCS.
	Workers int `json:"workers"`
	// Seed is the master seed; each instance derives its own from it.
	Seed int64 `json:"seed"`
	// Evaluations is the budget of each instance.
	Evaluations int `json:"evaluations"`
	// Algorithm is random or hillclimb.
	Algorithm    string  `json:"algorithm"`
	BatchSize    int     `json:"batch_size"`
	Neighbours   int     `json:"neighbours"`
	Patience     int     `json:"patience"`
	MutationRate float64 `json:"mutation_rate"`
	Sigma        float64 `json:"sigma"`
}

func (c *OptimizerConfig) SetDefaults() {
	if c.Instances == 0 {
		c.Instances = 4
	}
	if c.Evaluations == 0 {
		c.Evaluations = 1000
	}
	if c.Algorithm == "" {
		c.Algorithm = "hillclimb"
	}
	if c.Patience == 0 {
		c.Patience = 20
	}
}

func (c OptimizerConfig) Validate() error {
	if c.Instances < 1 {
		return fmt.Errorf("instances must be at least 1")
	}
	if c.Evaluations < 1 {
		return fmt.Errorf("evaluations must be at least 1")
	}
	if c.Workers < 0 || c.BatchSize < 0 || c.Neighbours < 0 || c.Patience < 0 {
		return fmt.Errorf("workers, batch_size, neighbours and patience must not be negative")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation_rate must be within [0,1]")
	}
	switch c.Algorithm {
	case "random", "hillclimb":
		return nil
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
}
