package grid

import (
	"math"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/state"
)

// ThermalGrid mixes thermal flows: powers add up and the resulting
// temperature is the mass-flow weighted mean of the contributors. When no
// contributor reports a mass flow the absolute power is used as weight.
type ThermalGrid struct {
	base
}

// ActiveToPassive mixes active outputs into passive inputs and the meter.
func (g *ThermalGrid) ActiveToPassive(activeOut, passiveIn *Entities, meter *state.Map) {
	for _, s := range g.sinks {
		in := passiveIn.At(s.passive)
		for _, c := range g.commodities {
			g.mix(c, activeOut, s.sources, in)
		}
	}
	if meter == nil {
		return
	}
	for _, a := range g.meterIn {
		out := activeOut.At(a)
		if out.IsEmpty() {
			continue
		}
		for _, c := range g.commodities {
			if out.Contains(c) {
				meter.SetOrAddPower(c, out.Power(c))
			}
		}
	}
}

func (g *ThermalGrid) mix(c commodity.Commodity, activeOut *Entities, sources []int, dst *state.Map) {
	var (
		power, flow    float64
		weighted, wsum float64
		seen           bool
	)
	for _, a := range sources {
		out := activeOut.At(a)
		if !out.Contains(c) {
			continue
		}
		seen = true
		p, f := out.Power(c), out.MassFlow(c)
		power += p
		flow += f
		w := f
		if w <= 0 {
			w = math.Abs(p)
		}
		weighted += w * out.Temperature(c)
		wsum += w
	}
	if !seen {
		return
	}
	dst.SetOrAddPower(c, power)
	if flow > 0 {
		dst.SetMassFlow(c, flow)
	}
	if wsum > 0 {
		dst.SetTemperature(c, weighted/wsum)
	}
}

// PassiveToActive hands the temperature (and mass flow, if reported) of
// every passive entity back to the active entities connected to it. When an
// active entity feeds several passive ones the last relation wins.
func (g *ThermalGrid) PassiveToActive(passiveOut, activeIn *Entities) {
	for _, fb := range g.feedback {
		out := passiveOut.At(fb.passive)
		if out.IsEmpty() {
			continue
		}
		in := activeIn.At(fb.active)
		for _, c := range g.commodities {
			if !out.Contains(c) {
				continue
			}
			in.SetTemperature(c, out.Temperature(c))
			if f := out.MassFlow(c); f > 0 {
				in.SetMassFlow(c, f)
			}
		}
	}
}
