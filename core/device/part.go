package device

import (
	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/translate"
)

// Part is a simulated household device that takes part in schedule
// evaluation.
//
// A configured Part is a template: it is never stepped itself. Every
// evaluation works on a Fork, which shares the static parameters, deep-copies
// the physical sub-model and starts from a fresh lifecycle without a decoded
// schedule.
type Part interface {
	simulation.Entity

	Name() string
	// Shapes returns the decision variables the part needs over h, in the
	// order Apply expects their decoded values. Uncontrollable parts return
	// nil.
	Shapes(h simulation.Horizon) []translate.Shape
	// Apply hands the decoded decision variables to the part.
	Apply(values []translate.Values) error
	Init(h simulation.Horizon) error
	// Cost returns the cost accumulated so far.
	Cost() float64
	// Finalize ends the run and returns the load profile and cost.
	Finalize() (Result, error)
	Fork() Part
}

// Switchable is implemented by parts whose schedule starts from a
// configured on/off state. Hold transitions at the start of a plan keep that
// state.
type Switchable interface {
	InitiallyOn() bool
}

// Result is the outcome of one part over one run.
type Result struct {
	ID      uuid.UUID            `json:"id"`
	Name    string               `json:"name"`
	Cost    float64              `json:"cost"`
	Profile *profile.LoadProfile `json:"-"`
	// Temperatures holds the per-slot storage temperature of parts that
	// have one.
	Temperatures []float64 `json:"temperatures,omitempty"`
	// Starts counts switch-on events of controllable parts.
	Starts int `json:"starts,omitempty"`
}
