package grid

import "github.com/kilianp07/ehsim/core/state"

// ElectricalGrid sums the power of every connected active entity.
type ElectricalGrid struct {
	base
}

// ActiveToPassive sums active outputs into passive inputs and the meter.
func (g *ElectricalGrid) ActiveToPassive(activeOut, passiveIn *Entities, meter *state.Map) {
	for _, s := range g.sinks {
		in := passiveIn.At(s.passive)
		for _, a := range s.sources {
			g.add(activeOut.At(a), in)
		}
	}
	if meter == nil {
		return
	}
	for _, a := range g.meterIn {
		g.add(activeOut.At(a), meter)
	}
}

func (g *ElectricalGrid) add(out, dst *state.Map) {
	if out.IsEmpty() {
		return
	}
	for _, c := range g.commodities {
		if out.Contains(c) {
			dst.SetOrAddPower(c, out.Power(c))
		}
	}
}

// PassiveToActive is a no-op. Voltage has no influence on the control logic
// of any modelled device, so electrical feedback is not propagated.
func (g *ElectricalGrid) PassiveToActive(_, _ *Entities) {}
