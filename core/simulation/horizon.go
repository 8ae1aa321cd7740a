package simulation

import (
	"fmt"
	"time"
)

// Horizon is the discretised time range of a run.
type Horizon struct {
	// Start is the first slot in unix seconds.
	Start int64 `json:"start"`
	// Step is the slot length in seconds.
	Step  int64 `json:"step"`
	Slots int   `json:"slots"`
}

// NewHorizon covers [start, start+length) in slots of step.
func NewHorizon(start time.Time, length, step time.Duration) (Horizon, error) {
	h := Horizon{Start: start.Unix(), Step: int64(step / time.Second)}
	if h.Step > 0 {
		h.Slots = int(int64(length/time.Second) / h.Step)
	}
	return h, h.Validate()
}

// Validate checks that the horizon has at least one slot of positive length.
func (h Horizon) Validate() error {
	if h.Step <= 0 {
		return fmt.Errorf("step must be positive, got %ds", h.Step)
	}
	if h.Slots <= 0 {
		return fmt.Errorf("horizon must contain at least one slot")
	}
	return nil
}

// SlotTime returns the start of slot i in unix seconds.
func (h Horizon) SlotTime(i int) int64 { return h.Start + int64(i)*h.Step }

// End returns the first second after the horizon.
func (h Horizon) End() int64 { return h.SlotTime(h.Slots) }

// StepHours returns the slot length in hours.
func (h Horizon) StepHours() float64 { return float64(h.Step) / 3600 }

// Slot returns the slot containing t, clamped to the horizon.
func (h Horizon) Slot(t int64) int {
	if t <= h.Start {
		return 0
	}
	i := int((t - h.Start) / h.Step)
	if i >= h.Slots {
		return h.Slots - 1
	}
	return i
}
