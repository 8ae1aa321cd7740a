package device

import (
	"fmt"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
	"github.com/kilianp07/ehsim/core/translate"
)

// CHPConfig holds the static parameters of a combined heat and power unit.
// Powers are nominal values in watts.
type CHPConfig struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ElectricalPower   float64 `json:"electrical_power"`
	ThermalPower      float64 `json:"thermal_power"`
	GasPower          float64 `json:"gas_power"`
	SupplyTemperature float64 `json:"supply_temperature"`
	// MinTemperature and MaxTemperature bound the hot-water return
	// temperature: below the unit is forced on, above it is forced off.
	MinTemperature    float64 `json:"min_temperature"`
	MaxTemperature    float64 `json:"max_temperature"`
	MinRuntimeSeconds int64   `json:"min_runtime_seconds"`
	WarmUpSeconds     float64 `json:"warmup_seconds"`
	ActivationSeconds int64   `json:"activation_seconds"`
	StartCost         float64 `json:"start_cost"`
	ForcedPenalty     float64 `json:"forced_penalty"`
	InitiallyOn       bool    `json:"initially_on"`
}

// SetDefaults fills unset parameters with the values of a small
// micro-CHP.
func (c *CHPConfig) SetDefaults() {
	if c.ElectricalPower == 0 {
		c.ElectricalPower = 5500
	}
	if c.ThermalPower == 0 {
		c.ThermalPower = 12500
	}
	if c.GasPower == 0 {
		c.GasPower = 20500
	}
	if c.SupplyTemperature == 0 {
		c.SupplyTemperature = 80
	}
	if c.MinTemperature == 0 && c.MaxTemperature == 0 {
		c.MinTemperature, c.MaxTemperature = 60, 80
	}
}

// Validate checks the parameters.
func (c CHPConfig) Validate() error {
	if c.ElectricalPower < 0 || c.ThermalPower < 0 || c.GasPower < 0 {
		return fmt.Errorf("chp powers must not be negative")
	}
	if c.MinTemperature > c.MaxTemperature {
		return fmt.Errorf("chp min_temperature above max_temperature")
	}
	if c.MinRuntimeSeconds < 0 || c.WarmUpSeconds < 0 || c.ActivationSeconds < 0 {
		return fmt.Errorf("chp durations must not be negative")
	}
	return nil
}

// CHP is a gas-fired combined heat and power unit. It is active on the
// electrical, hot-water and gas grids and follows a bi-state schedule,
// overridden by hysteresis on the hot-water return temperature.
type CHP struct {
	Base
	cfg      CHPConfig
	schedule schedule
	hyst     hysteresis
	engine   *warmUp
}

// NewCHP builds a CHP template.
func NewCHP(cfg CHPConfig) (*CHP, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := parseID(cfg.ID)
	if err != nil {
		return nil, err
	}
	return &CHP{
		Base: newBase(id, cfg.Name, commodity.ActivePower, commodity.HotWaterPower, commodity.NaturalGasPower),
		cfg:  cfg,
		schedule: schedule{
			activation: cfg.ActivationSeconds,
			minRuntime: cfg.MinRuntimeSeconds,
			initial:    cfg.InitiallyOn,
		},
		hyst:   hysteresis{low: cfg.MinTemperature, high: cfg.MaxTemperature},
		engine: &warmUp{duration: cfg.WarmUpSeconds},
	}, nil
}

// ReactsToInputStates implements simulation.Entity.
func (c *CHP) ReactsToInputStates() bool { return true }

// Shapes implements Part.
func (c *CHP) Shapes(h simulation.Horizon) []translate.Shape {
	return []translate.Shape{c.schedule.shape(h)}
}

// Apply implements Part. It must follow Init.
func (c *CHP) Apply(values []translate.Values) error {
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
func (c *CHP) Init(h simulation.Horizon) error {
	if err := c.begin(h); err != nil {
		return err
	}
	c.schedule.reset(h)
	if c.schedule.running {
		c.engine.start()
		c.engine.elapsed = c.engine.duration
	}
	return nil
}

// Step implements simulation.Entity.
func (c *CHP) Step(in, out *state.Map) error {
	_, t, err := c.advance()
	if err != nil {
		return err
	}
	h := c.Horizon()

	force := NoForce
	if in != nil && in.Contains(commodity.HotWaterPower) {
		force = c.hyst.force(in.Temperature(commodity.HotWaterPower))
	}
	d := c.schedule.decide(h, t, force)
	if d.contradicted {
		c.cost += c.cfg.ForcedPenalty
	}
	switch {
	case d.started:
		c.cost += c.cfg.StartCost
		c.starts++
		c.engine.start()
	case !d.on:
		c.engine.stop()
	}

	mod := c.engine.advance(float64(h.Step))
	if mod > 0 {
		out.SetPower(commodity.ActivePower, -c.cfg.ElectricalPower*mod)
		out.SetPower(commodity.HotWaterPower, -c.cfg.ThermalPower*mod)
		out.SetTemperature(commodity.HotWaterPower, c.cfg.SupplyTemperature)
		out.SetPower(commodity.NaturalGasPower, c.cfg.GasPower*mod)
	}
	c.record(t, out)
	return nil
}

// Running reports whether the unit is switched on.
func (c *CHP) Running() bool { return c.schedule.running }

// InitiallyOn implements Switchable.
func (c *CHP) InitiallyOn() bool { return c.schedule.initial }

// Finalize implements Part.
func (c *CHP) Finalize() (Result, error) { return c.end() }

// Fork implements Part.
func (c *CHP) Fork() Part {
	return &CHP{
		Base:     c.Base.fork(),
		cfg:      c.cfg,
		schedule: c.schedule.clone(),
		hyst:     c.hyst,
		engine:   c.engine.clone(),
	}
}
