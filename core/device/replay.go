package device

import (
	"fmt"
	"sort"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
	"github.com/kilianp07/ehsim/core/translate"
)

// ReplayConfig holds a fixed demand profile.
type ReplayConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Series maps a commodity name to change points, T in seconds from the
	// start of the horizon.
	Series map[string][]profile.Point `json:"series"`
	// PeriodSeconds repeats the series; zero holds the last value.
	PeriodSeconds int64 `json:"period_seconds"`
	// Temperature is reported with thermal demand, typically the cold-water
	// inlet temperature.
	Temperature float64 `json:"temperature"`
}

// Validate checks the parameters.
func (c ReplayConfig) Validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("replay needs at least one series")
	}
	for name, pts := range c.Series {
		if _, err := commodity.Parse(name); err != nil {
			return err
		}
		for i := 1; i < len(pts); i++ {
			if pts[i].T < pts[i-1].T {
				return fmt.Errorf("replay series %s is not sorted at point %d", name, i)
			}
		}
	}
	if c.PeriodSeconds < 0 {
		return fmt.Errorf("replay period must not be negative")
	}
	return nil
}

// LoadReplay is an uncontrollable active entity that replays a fixed
// profile, such as the base electrical load or domestic hot-water demand.
type LoadReplay struct {
	Base
	cfg    ReplayConfig
	series *profile.LoadProfile
}

// NewLoadReplay builds a replay template.
func NewLoadReplay(cfg ReplayConfig) (*LoadReplay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := parseID(cfg.ID)
	if err != nil {
		return nil, err
	}
	series := profile.New(0, cfg.PeriodSeconds)
	var cs []commodity.Commodity
	for name, pts := range cfg.Series {
		c, _ := commodity.Parse(name)
		cs = append(cs, c)
		for _, p := range pts {
			series.Set(c, p.T, p.V)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return &LoadReplay{Base: newBase(id, cfg.Name, cs...), cfg: cfg, series: series}, nil
}

// ReactsToInputStates implements simulation.Entity.
func (r *LoadReplay) ReactsToInputStates() bool { return false }

// Shapes implements Part.
func (r *LoadReplay) Shapes(simulation.Horizon) []translate.Shape { return nil }

// Apply implements Part.
func (r *LoadReplay) Apply(values []translate.Values) error {
	if len(values) != 0 {
		return fmt.Errorf("%s: replay takes no decision variables", r.name)
	}
	return nil
}

// Init implements Part.
func (r *LoadReplay) Init(h simulation.Horizon) error { return r.begin(h) }

// Step implements simulation.Entity.
func (r *LoadReplay) Step(_, out *state.Map) error {
	_, t, err := r.advance()
	if err != nil {
		return err
	}
	off := t - r.Horizon().Start
	if p := r.cfg.PeriodSeconds; p > 0 {
		off %= p
	}
	for _, c := range r.commodities {
		v := r.series.ValueAt(c, off)
		if v == 0 {
			continue
		}
		out.SetPower(c, v)
		if c.IsThermal() {
			out.SetTemperature(c, r.cfg.Temperature)
		}
	}
	r.record(t, out)
	return nil
}

// Finalize implements Part.
func (r *LoadReplay) Finalize() (Result, error) { return r.end() }

// Fork implements Part. The replayed series is shared read-only.
func (r *LoadReplay) Fork() Part {
	return &LoadReplay{Base: r.Base.fork(), cfg: r.cfg, series: r.series}
}
