package device

import (
	"fmt"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
	"github.com/kilianp07/ehsim/core/translate"
)

// waterHeatCapacity is the specific heat of water in J/(kg K).
const waterHeatCapacity = 4186.0

// TankConfig holds the static parameters of a water storage tank.
type TankConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Commodity is the thermal commodity stored, hotwaterpower by default.
	Commodity          string  `json:"commodity"`
	VolumeLiters       float64 `json:"volume_liters"`
	InitialTemperature float64 `json:"initial_temperature"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	// LossCoefficient is the standing loss in W/K.
	LossCoefficient float64 `json:"loss_coefficient"`
	ComfortMin      float64 `json:"comfort_min"`
	ComfortMax      float64 `json:"comfort_max"`
	// ComfortPenalty is charged per kelvin-hour outside the comfort band.
	ComfortPenalty float64 `json:"comfort_penalty"`
}

// SetDefaults fills unset parameters with a 750 l hot-water buffer.
func (c *TankConfig) SetDefaults() {
	if c.Commodity == "" {
		c.Commodity = commodity.HotWaterPower.String()
	}
	if c.VolumeLiters == 0 {
		c.VolumeLiters = 750
	}
	if c.InitialTemperature == 0 {
		c.InitialTemperature = 60
	}
	if c.AmbientTemperature == 0 {
		c.AmbientTemperature = 20
	}
	if c.LossCoefficient == 0 {
		c.LossCoefficient = 3
	}
}

// Validate checks the parameters.
func (c TankConfig) Validate() error {
	cm, err := commodity.Parse(c.Commodity)
	if err != nil {
		return err
	}
	if !cm.IsThermal() {
		return fmt.Errorf("tank commodity %s is not thermal", cm)
	}
	if c.VolumeLiters <= 0 {
		return fmt.Errorf("tank volume must be positive")
	}
	if c.LossCoefficient < 0 {
		return fmt.Errorf("tank loss coefficient must not be negative")
	}
	if c.ComfortMin > c.ComfortMax {
		return fmt.Errorf("tank comfort_min above comfort_max")
	}
	return nil
}

// WaterTank is a passive thermal storage. The net power fed by the grid
// changes its temperature, which it reports back to the active entities.
// Negative input power heats a hot tank; for cold-water tanks negative
// input power is cooling and lowers the temperature.
type WaterTank struct {
	Base
	cfg  TankConfig
	c    commodity.Commodity
	cold bool
	// capacity is the heat capacity in J/K.
	capacity float64

	temp  float64
	trace []float64
}

// NewWaterTank builds a tank template.
func NewWaterTank(cfg TankConfig) (*WaterTank, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := parseID(cfg.ID)
	if err != nil {
		return nil, err
	}
	c, _ := commodity.Parse(cfg.Commodity)
	return &WaterTank{
		Base:     newBase(id, cfg.Name, c),
		cfg:      cfg,
		c:        c,
		cold:     c == commodity.ColdWaterPower,
		capacity: cfg.VolumeLiters * waterHeatCapacity,
		temp:     cfg.InitialTemperature,
	}, nil
}

// ReactsToInputStates implements simulation.Entity.
func (w *WaterTank) ReactsToInputStates() bool { return true }

// Shapes implements Part.
func (w *WaterTank) Shapes(simulation.Horizon) []translate.Shape { return nil }

// Apply implements Part.
func (w *WaterTank) Apply(values []translate.Values) error {
	if len(values) != 0 {
		return fmt.Errorf("%s: tank takes no decision variables", w.name)
	}
	return nil
}

// Init implements Part.
func (w *WaterTank) Init(h simulation.Horizon) error {
	if err := w.begin(h); err != nil {
		return err
	}
	w.temp = w.cfg.InitialTemperature
	w.trace = make([]float64, 0, h.Slots)
	return nil
}

// Step implements simulation.Entity.
func (w *WaterTank) Step(in, out *state.Map) error {
	_, t, err := w.advance()
	if err != nil {
		return err
	}
	h := w.Horizon()
	dt := float64(h.Step)

	var p float64
	if in != nil {
		p = in.Power(w.c)
		if !in.Contains(w.c) {
			p = 0
		}
	}
	heat := -p
	if w.cold {
		heat = p
	}
	heat -= w.cfg.LossCoefficient * (w.temp - w.cfg.AmbientTemperature)
	w.temp += heat * dt / w.capacity

	if w.cfg.ComfortPenalty > 0 && w.cfg.ComfortMin < w.cfg.ComfortMax {
		var dev float64
		switch {
		case w.temp < w.cfg.ComfortMin:
			dev = w.cfg.ComfortMin - w.temp
		case w.temp > w.cfg.ComfortMax:
			dev = w.temp - w.cfg.ComfortMax
		}
		w.cost += w.cfg.ComfortPenalty * dev * h.StepHours()
	}

	out.SetTemperature(w.c, w.temp)
	w.trace = append(w.trace, w.temp)
	w.record(t, in)
	return nil
}

// Temperature returns the current storage temperature.
func (w *WaterTank) Temperature() float64 { return w.temp }

// Finalize implements Part.
func (w *WaterTank) Finalize() (Result, error) {
	r, err := w.end()
	if err != nil {
		return r, err
	}
	r.Temperatures = w.trace
	return r, nil
}

// Fork implements Part.
func (w *WaterTank) Fork() Part {
	return &WaterTank{
		Base:     w.Base.fork(),
		cfg:      w.cfg,
		c:        w.c,
		cold:     w.cold,
		capacity: w.capacity,
		temp:     w.cfg.InitialTemperature,
	}
}
