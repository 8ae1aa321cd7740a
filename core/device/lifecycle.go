package device

import (
	"errors"
	"fmt"

	"github.com/kilianp07/ehsim/core/simulation"
)

var (
	ErrNotInitialized  = errors.New("device not initialized")
	ErrHorizonExceeded = errors.New("step past the end of the horizon")
	ErrFinalized       = errors.New("device already finalized")
)

// Phase is a lifecycle position.
type Phase int

const (
	Uninitialized Phase = iota
	Initialized
	Stepping
	Finalized
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Stepping:
		return "stepping"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Lifecycle enforces the order Init, Step*, Finalize. Steps advance by
// exactly one slot each. The zero value is uninitialized.
type Lifecycle struct {
	phase   Phase
	horizon simulation.Horizon
	slot    int
}

// Begin moves to the initialized phase.
func (l *Lifecycle) Begin(h simulation.Horizon) error {
	switch l.phase {
	case Finalized:
		return ErrFinalized
	case Stepping:
		return fmt.Errorf("init while stepping at slot %d", l.slot)
	}
	if err := h.Validate(); err != nil {
		return err
	}
	l.phase, l.horizon, l.slot = Initialized, h, 0
	return nil
}

// Advance claims the next slot and returns its index and start time.
func (l *Lifecycle) Advance() (int, int64, error) {
	switch l.phase {
	case Uninitialized:
		return 0, 0, ErrNotInitialized
	case Finalized:
		return 0, 0, ErrFinalized
	}
	if l.slot >= l.horizon.Slots {
		return 0, 0, fmt.Errorf("%w: slot %d of %d", ErrHorizonExceeded, l.slot, l.horizon.Slots)
	}
	i := l.slot
	l.slot++
	l.phase = Stepping
	return i, l.horizon.SlotTime(i), nil
}

// End moves to the finalized phase.
func (l *Lifecycle) End() error {
	switch l.phase {
	case Uninitialized:
		return ErrNotInitialized
	case Finalized:
		return ErrFinalized
	}
	l.phase = Finalized
	return nil
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase { return l.phase }

// Horizon returns the horizon given to Begin.
func (l *Lifecycle) Horizon() simulation.Horizon { return l.horizon }

// Slot returns the number of completed steps.
func (l *Lifecycle) Slot() int { return l.slot }
