package device

import (
	"fmt"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
	"github.com/kilianp07/ehsim/core/translate"
)

// ChillerConfig holds the static parameters of an adsorption chiller.
type ChillerConfig struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ElectricalPower float64 `json:"electrical_power"`
	// HotWaterPower is the driving heat drawn from the hot-water grid.
	HotWaterPower float64 `json:"hot_water_power"`
	CoolingPower  float64 `json:"cooling_power"`
	// MinDrivingTemperature is the hot-water temperature needed to run.
	MinDrivingTemperature float64 `json:"min_driving_temperature"`
	SupplyTemperature     float64 `json:"supply_temperature"`
	// ColdMin and ColdMax bound the cold-water return temperature: above
	// ColdMax the chiller is forced on, below ColdMin it is forced off.
	ColdMin           float64 `json:"cold_min"`
	ColdMax           float64 `json:"cold_max"`
	MinRuntimeSeconds int64   `json:"min_runtime_seconds"`
	ActivationSeconds int64   `json:"activation_seconds"`
	StartCost         float64 `json:"start_cost"`
	ForcedPenalty     float64 `json:"forced_penalty"`
}

// SetDefaults fills unset parameters with a 10 kW cold output unit.
func (c *ChillerConfig) SetDefaults() {
	if c.ElectricalPower == 0 {
		c.ElectricalPower = 300
	}
	if c.HotWaterPower == 0 {
		c.HotWaterPower = 16000
	}
	if c.CoolingPower == 0 {
		c.CoolingPower = 10000
	}
	if c.MinDrivingTemperature == 0 {
		c.MinDrivingTemperature = 55
	}
	if c.SupplyTemperature == 0 {
		c.SupplyTemperature = 12
	}
	if c.ColdMin == 0 && c.ColdMax == 0 {
		c.ColdMin, c.ColdMax = 10, 16
	}
}

// Validate checks the parameters.
func (c ChillerConfig) Validate() error {
	if c.ElectricalPower < 0 || c.HotWaterPower < 0 || c.CoolingPower < 0 {
		return fmt.Errorf("chiller powers must not be negative")
	}
	if c.ColdMin > c.ColdMax {
		return fmt.Errorf("chiller cold_min above cold_max")
	}
	if c.MinRuntimeSeconds < 0 || c.ActivationSeconds < 0 {
		return fmt.Errorf("chiller durations must not be negative")
	}
	return nil
}

// Chiller is an adsorption chiller. It consumes electricity and driving heat
// and produces cold water. It runs only while the hot water is warm enough;
// the cold-water return temperature forces it on or off.
type Chiller struct {
	Base
	cfg      ChillerConfig
	schedule schedule
	hyst     hysteresis
}

// NewChiller builds a chiller template.
func NewChiller(cfg ChillerConfig) (*Chiller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := parseID(cfg.ID)
	if err != nil {
		return nil, err
	}
	return &Chiller{
		Base: newBase(id, cfg.Name, commodity.ActivePower, commodity.HotWaterPower, commodity.ColdWaterPower),
		cfg:  cfg,
		schedule: schedule{
			activation: cfg.ActivationSeconds,
			minRuntime: cfg.MinRuntimeSeconds,
		},
		hyst: hysteresis{low: cfg.ColdMin, high: cfg.ColdMax, inverted: true},
	}, nil
}

// ReactsToInputStates implements simulation.Entity.
func (c *Chiller) ReactsToInputStates() bool { return true }

// Shapes implements Part.
func (c *Chiller) Shapes(h simulation.Horizon) []translate.Shape {
	return []translate.Shape{c.schedule.shape(h)}
}

// Apply implements Part. It must follow Init.
func (c *Chiller) Apply(values []translate.Values) error {
	if c.Phase() == Uninitialized {
		return fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	}
	if len(values) != 1 {
		return fmt.Errorf("%s: expected 1 decoded block, got %d", c.name, len(values))
	}
	if err := c.schedule.apply(c.Horizon(), values[0]); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

// Init implements Part.
func (c *Chiller) Init(h simulation.Horizon) error {
	if err := c.begin(h); err != nil {
		return err
	}
	c.schedule.reset(h)
	return nil
}

// Step implements simulation.Entity.
func (c *Chiller) Step(in, out *state.Map) error {
	_, t, err := c.advance()
	if err != nil {
		return err
	}
	force := NoForce
	if in != nil {
		if in.Contains(commodity.ColdWaterPower) {
			force = c.hyst.force(in.Temperature(commodity.ColdWaterPower))
		}
		if in.Contains(commodity.HotWaterPower) &&
			in.Temperature(commodity.HotWaterPower) < c.cfg.MinDrivingTemperature {
			force = ForceOff
		}
	}
	d := c.schedule.decide(c.Horizon(), t, force)
	if d.contradicted {
		c.cost += c.cfg.ForcedPenalty
	}
	if d.started {
		c.cost += c.cfg.StartCost
		c.starts++
	}
	if d.on {
		out.SetPower(commodity.ActivePower, c.cfg.ElectricalPower)
		out.SetPower(commodity.HotWaterPower, c.cfg.HotWaterPower)
		out.SetPower(commodity.ColdWaterPower, -c.cfg.CoolingPower)
		out.SetTemperature(commodity.ColdWaterPower, c.cfg.SupplyTemperature)
	}
	c.record(t, out)
	return nil
}

// Running reports whether the chiller is switched on.
func (c *Chiller) Running() bool { return c.schedule.running }

// InitiallyOn implements Switchable.
func (c *Chiller) InitiallyOn() bool { return c.schedule.initial }

// Finalize implements Part.
func (c *Chiller) Finalize() (Result, error) { return c.end() }

// Fork implements Part.
func (c *Chiller) Fork() Part {
	return &Chiller{
		Base:     c.Base.fork(),
		cfg:      c.cfg,
		schedule: c.schedule.clone(),
		hyst:     c.hyst,
	}
}
