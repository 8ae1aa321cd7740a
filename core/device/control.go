package device

import (
	"fmt"
	"math"

	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/translate"
)

// Force is an override raised by a device's own protection logic.
type Force int

const (
	NoForce Force = iota
	ForceOn
	ForceOff
)

// schedule follows a bi-state plan with one decision per activation window,
// honouring a minimum runtime and protection overrides.
type schedule struct {
	activation int64
	minRuntime int64
	initial    bool

	plan    []translate.Transition
	running bool
	since   int64
}

func (s *schedule) windowSeconds(h simulation.Horizon) int64 {
	if s.activation <= 0 {
		return h.Step
	}
	return s.activation
}

// shape returns the boolean block covering h.
func (s *schedule) shape(h simulation.Horizon) translate.Shape {
	w := s.windowSeconds(h)
	total := int64(h.Slots) * h.Step
	n := int((total + w - 1) / w)
	return translate.Shape{Type: translate.Boolean, Count: n}
}

// apply stores the decoded plan. Absolute booleans become explicit
// transitions.
func (s *schedule) apply(h simulation.Horizon, v translate.Values) error {
	want := s.shape(h).Count
	if v.Type != translate.Boolean {
		return fmt.Errorf("schedule expects booleans, got %s", v.Type)
	}
	if v.Transitions != nil {
		if len(v.Transitions) != want {
			return fmt.Errorf("schedule expects %d transitions, got %d", want, len(v.Transitions))
		}
		s.plan = append(s.plan[:0], v.Transitions...)
		return nil
	}
	if len(v.Booleans) != want {
		return fmt.Errorf("schedule expects %d states, got %d", want, len(v.Booleans))
	}
	s.plan = s.plan[:0]
	for _, on := range v.Booleans {
		t := translate.TurnOff
		if on {
			t = translate.TurnOn
		}
		s.plan = append(s.plan, t)
	}
	return nil
}

func (s *schedule) reset(h simulation.Horizon) {
	s.running = s.initial
	s.since = h.Start
	if s.initial {
		s.since = h.Start - s.minRuntime
	}
}

func (s *schedule) planned(h simulation.Horizon, t int64) translate.Transition {
	if len(s.plan) == 0 {
		return translate.Hold
	}
	i := int((t - h.Start) / s.windowSeconds(h))
	if i >= len(s.plan) {
		i = len(s.plan) - 1
	}
	return s.plan[i]
}

// decision is the outcome of one schedule step.
type decision struct {
	on bool
	// started is set on an off to on switch.
	started bool
	// contradicted is set when a force overrode an explicit plan entry.
	contradicted bool
}

func (s *schedule) decide(h simulation.Horizon, t int64, f Force) decision {
	p := s.planned(h, t)
	want := s.running
	switch p {
	case translate.TurnOn:
		want = true
	case translate.TurnOff:
		want = false
	}
	var d decision
	switch f {
	case ForceOn:
		d.contradicted = p == translate.TurnOff
		want = true
	case ForceOff:
		d.contradicted = p == translate.TurnOn
		want = false
	default:
		if s.running && !want && t-s.since < s.minRuntime {
			want = true
		}
	}
	if want && !s.running {
		s.since = t
		d.started = true
	}
	s.running = want
	d.on = want
	return d
}

func (s *schedule) clone() schedule {
	return schedule{activation: s.activation, minRuntime: s.minRuntime, initial: s.initial}
}

// hysteresis forces a device on below low and off above high.
type hysteresis struct {
	low, high float64
	// inverted swaps the directions, for cooling devices.
	inverted bool
}

func (h hysteresis) force(temp float64) Force {
	if h.low >= h.high {
		return NoForce
	}
	switch {
	case temp < h.low && !h.inverted, temp > h.high && h.inverted:
		return ForceOn
	case temp > h.high && !h.inverted, temp < h.low && h.inverted:
		return ForceOff
	}
	return NoForce
}

// warmUp models the linear modulation ramp of a combustion engine after a
// cold start. The ramp restarts after every stop.
type warmUp struct {
	duration float64
	elapsed  float64
	on       bool
}

func (w *warmUp) start() { w.on, w.elapsed = true, 0 }
func (w *warmUp) stop()  { w.on = false }

// advance runs the model for dt seconds and returns the mean modulation in
// [0,1] over that interval.
func (w *warmUp) advance(dt float64) float64 {
	if !w.on || dt <= 0 {
		return 0
	}
	a, b := w.elapsed, w.elapsed+dt
	w.elapsed = b
	d := w.duration
	if d <= 0 || a >= d {
		return 1
	}
	// integral of min(x/d, 1) over [a, b]
	ramp := math.Min(b, d)
	area := (ramp*ramp - a*a) / (2 * d)
	if b > d {
		area += b - d
	}
	return area / dt
}

func (w *warmUp) clone() *warmUp {
	cp := *w
	return &cp
}
