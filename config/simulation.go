package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/ehsim/core/simulation"
)

// SimulationConfig describes the simulated horizon and the grid layout.
type SimulationConfig struct {
	// Start is an RFC3339 timestamp; the current UTC day is used when empty.
	Start          string `json:"start"`
	HorizonSeconds int64  `json:"horizon_seconds"`
	StepSeconds    int64  `json:"step_seconds"`
	// Layout is the path of the grid layout file, relative to the
	// configuration file.
	Layout string `json:"layout"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.HorizonSeconds == 0 {
		c.HorizonSeconds = 86400
	}
	if c.StepSeconds == 0 {
		c.StepSeconds = 900
	}
}

func (c SimulationConfig) Validate() error {
	if c.Layout == "" {
		return fmt.Errorf("layout is required")
	}
	if c.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive")
	}
	if c.HorizonSeconds < c.StepSeconds {
		return fmt.Errorf("horizon_seconds must cover at least one step")
	}
	if c.Start != "" {
		if _, err := time.Parse(time.RFC3339, c.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	return nil
}

// Horizon converts the settings into a simulation horizon.
func (c SimulationConfig) Horizon() (simulation.Horizon, error) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if c.Start != "" {
		t, err := time.Parse(time.RFC3339, c.Start)
		if err != nil {
			return simulation.Horizon{}, err
		}
		start = t
	}
	return simulation.NewHorizon(start,
		time.Duration(c.HorizonSeconds)*time.Second,
		time.Duration(c.StepSeconds)*time.Second)
}

// EncodingConfig selects the candidate vector representation.
type EncodingConfig struct {
	// Representation is binary or real.
	Representation string `json:"representation"`
	BiState        bool   `json:"bistate"`
	// BitsPerActivation sizes the bi-state groups, bits per state for real
	// vectors.
	BitsPerActivation int `json:"bits_per_activation"`
	// ActivationSeconds is the default switching granularity of
	// controllable devices.
	ActivationSeconds int64 `json:"activation_seconds"`
}

func (c *EncodingConfig) SetDefaults() {
	if c.Representation == "" {
		c.Representation = "binary"
	}
	if c.BiState && c.BitsPerActivation == 0 {
		c.BitsPerActivation = 1
	}
}

func (c EncodingConfig) Validate() error {
	if c.Representation != "binary" && c.Representation != "real" {
		return fmt.Errorf("unknown representation %q", c.Representation)
	}
	if c.BiState && c.BitsPerActivation < 1 {
		return fmt.Errorf("bits_per_activation must be at least 1")
	}
	if c.ActivationSeconds < 0 {
		return fmt.Errorf("activation_seconds must not be negative")
	}
	return nil
}
