package simulation

import (
	"fmt"

	"github.com/kilianp07/ehsim/core/grid"
	"github.com/kilianp07/ehsim/core/state"
)

// Run is one simulation over a set of entities. It owns its state maps and
// must be driven from a single goroutine.
type Run struct {
	grids    []grid.Grid
	actives  []Entity
	passives []Entity

	activeOut  *grid.Entities
	activeIn   *grid.Entities
	passiveIn  *grid.Entities
	passiveOut *grid.Entities
	meter      *state.Map

	slot int
}

// Step advances every entity by one slot:
//  1. active entities step on last slot's feedback,
//  2. phase A combines active outputs into passive inputs and the meter,
//  3. passive entities step,
//  4. phase B feeds passive outputs back to the active inputs.
func (r *Run) Step() error {
	r.activeOut.ClearInnerStates()
	for id, e := range r.actives {
		if err := e.Step(r.activeIn.At(id), r.activeOut.At(id)); err != nil {
			return fmt.Errorf("active %s: %w", e.ID(), err)
		}
	}

	r.meter.Clear()
	r.passiveIn.ClearInnerStates()
	for _, g := range r.grids {
		g.ActiveToPassive(r.activeOut, r.passiveIn, r.meter)
	}

	r.passiveOut.ClearInnerStates()
	for id, e := range r.passives {
		var in *state.Map
		if e.ReactsToInputStates() {
			in = r.passiveIn.At(id)
		}
		if err := e.Step(in, r.passiveOut.At(id)); err != nil {
			return fmt.Errorf("passive %s: %w", e.ID(), err)
		}
	}

	r.activeIn.ClearInnerStates()
	for _, g := range r.grids {
		g.PassiveToActive(r.passiveOut, r.activeIn)
	}
	r.slot++
	return nil
}

// Slot returns the number of completed steps.
func (r *Run) Slot() int { return r.slot }

// Meter returns the grid-boundary exchange of the last step. The map is
// reused by the next step.
func (r *Run) Meter() *state.Map { return r.meter }

// ActiveOutputs returns the output index of the active entities.
func (r *Run) ActiveOutputs() *grid.Entities { return r.activeOut }

// PassiveOutputs returns the output index of the passive entities.
func (r *Run) PassiveOutputs() *grid.Entities { return r.passiveOut }
