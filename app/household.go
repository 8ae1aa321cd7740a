package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/config"
	"github.com/kilianp07/ehsim/core/device"
	"github.com/kilianp07/ehsim/core/grid"
	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/translate"
	"github.com/kilianp07/ehsim/infra/logger"
)

// ErrNothingToOptimize is returned when no device exposes decision variables.
var ErrNothingToOptimize = errors.New("no controllable device in the household")

// Household is the configured horizon, grid layout and device templates.
// Every problem gets its own grids since an engine binds them.
type Household struct {
	cfg     *config.Config
	horizon simulation.Horizon
	layout  grid.Layout
	parts   []device.Part
}

// LoadHousehold reads the layout file and builds the devices of cfg.
func LoadHousehold(cfg *config.Config) (*Household, error) {
	h, err := cfg.Simulation.Horizon()
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}
	layout, err := grid.LoadLayout(cfg.Simulation.Layout)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if _, err := grid.FromLayout(layout); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	parts, err := device.NewAll(cfg.Devices)
	if err != nil {
		return nil, err
	}
	return &Household{cfg: cfg, horizon: h, layout: layout, parts: parts}, nil
}

// grids builds unbound grids from the layout.
func (h *Household) grids() ([]grid.Grid, error) {
	return grid.FromLayout(h.layout)
}

// Horizon returns the simulated horizon.
func (h *Household) Horizon() simulation.Horizon { return h.horizon }

// Parts returns the device templates.
func (h *Household) Parts() []device.Part { return h.parts }

func (h *Household) problemConfig() problem.Config {
	return problem.Config{
		Horizon: h.horizon,
		Pricing: h.cfg.Pricing,
		Workers: h.cfg.Optimizer.Workers,
		Logger:  logger.New("problem"),
	}
}

// BinaryProblem builds the problem for binary candidate vectors.
func (h *Household) BinaryProblem() (*problem.Problem[[]bool], error) {
	var tr translate.Translator[[]bool] = translate.NewBinaryFullRange()
	if enc := h.cfg.Encoding; enc.BiState {
		bs, err := translate.NewBinaryBiState(enc.BitsPerActivation)
		if err != nil {
			return nil, err
		}
		tr = bs
	}
	return newProblem(h, tr)
}

// RealProblem builds the problem for real candidate vectors.
func (h *Household) RealProblem() (*problem.Problem[[]float64], error) {
	var tr translate.Translator[[]float64] = translate.NewRealFullRange()
	if enc := h.cfg.Encoding; enc.BiState {
		bs, err := translate.NewRealBiState(enc.BitsPerActivation)
		if err != nil {
			return nil, err
		}
		tr = bs
	}
	return newProblem(h, tr)
}

func newProblem[S problem.Vector](h *Household, tr translate.Translator[S]) (*problem.Problem[S], error) {
	grids, err := h.grids()
	if err != nil {
		return nil, err
	}
	return problem.New[S](tr, grids, h.parts, h.problemConfig())
}

// EntityInfo names one classified device.
type EntityInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Check is the classification of the household devices.
type Check struct {
	Active  []EntityInfo `json:"active"`
	Passive []EntityInfo `json:"passive"`
	Grids   []string     `json:"grids"`
}

// Check classifies every device and binds the grids. Overlapping or
// unconnected devices and dangling relations are reported as errors.
func (h *Household) Check() (*Check, error) {
	entities := make([]simulation.Entity, len(h.parts))
	names := make(map[uuid.UUID]string, len(h.parts))
	for i, p := range h.parts {
		entities[i] = p
		names[p.ID()] = p.Name()
	}
	grids, err := h.grids()
	if err != nil {
		return nil, err
	}
	engine, err := simulation.New(grids, entities, nil)
	if err != nil {
		return nil, err
	}
	c := engine.Classification()
	out := &Check{}
	for _, id := range c.Active {
		out.Active = append(out.Active, EntityInfo{ID: id, Name: names[id]})
	}
	for _, id := range c.Passive {
		out.Passive = append(out.Passive, EntityInfo{ID: id, Name: names[id]})
	}
	for _, g := range grids {
		out.Grids = append(out.Grids, fmt.Sprintf("%s (%s)", g.Name(), g.Type()))
	}
	return out, nil
}

// Decoded is a decoded and optionally simulated candidate.
type Decoded struct {
	Schedule   *problem.Snapshot   `json:"schedule"`
	Evaluation *problem.Evaluation `json:"evaluation,omitempty"`
}

// Decode parses vector in the configured representation and decodes it.
// With evaluate set the candidate is also simulated.
func (h *Household) Decode(ctx context.Context, vector string, evaluate bool) (*Decoded, error) {
	if h.cfg.Encoding.Representation == "real" {
		s, err := ParseReal(vector)
		if err != nil {
			return nil, err
		}
		p, err := h.RealProblem()
		if err != nil {
			return nil, err
		}
		return decode(ctx, p, s, evaluate)
	}
	s, err := ParseBinary(vector)
	if err != nil {
		return nil, err
	}
	p, err := h.BinaryProblem()
	if err != nil {
		return nil, err
	}
	return decode(ctx, p, s, evaluate)
}

func decode[S problem.Vector](ctx context.Context, p *problem.Problem[S], s S, evaluate bool) (*Decoded, error) {
	snap, err := p.Snapshot(s)
	if err != nil {
		return nil, err
	}
	out := &Decoded{Schedule: snap}
	if evaluate {
		if out.Evaluation, err = p.Evaluate(ctx, s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParseBinary reads a string of 0 and 1. Spaces, commas and underscores are
// ignored.
func ParseBinary(v string) ([]bool, error) {
	var out []bool
	for i, r := range v {
		switch r {
		case '0':
			out = append(out, false)
		case '1':
			out = append(out, true)
		case ' ', ',', '_', '\n', '\t':
		default:
			return nil, fmt.Errorf("invalid bit %q at position %d", r, i)
		}
	}
	return out, nil
}

// FormatBinary is the inverse of ParseBinary.
func FormatBinary(s []bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, v := range s {
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ParseReal reads comma separated genes in [0,1].
func ParseReal(v string) ([]float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	fields := strings.Split(v, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		if x < 0 || x > 1 {
			return nil, fmt.Errorf("gene %d: %g outside [0,1]", i, x)
		}
		out[i] = x
	}
	return out, nil
}

// FormatReal is the inverse of ParseReal.
func FormatReal(s []float64) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
