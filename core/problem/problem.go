package problem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/ehsim/core/device"
	"github.com/kilianp07/ehsim/core/grid"
	"github.com/kilianp07/ehsim/core/logger"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/translate"
)

// ErrDimension is returned for candidates whose length differs from the
// layout.
var ErrDimension = errors.New("candidate length does not match layout")

// Vector is an optimizer solution vector.
type Vector interface {
	~[]bool | ~[]float64
}

// Config holds the evaluation settings.
type Config struct {
	Horizon simulation.Horizon
	Pricing Pricing
	// Workers bounds concurrent evaluations in EvaluateBatch. Zero uses
	// GOMAXPROCS.
	Workers int
	Logger  logger.Logger
}

// Problem evaluates candidate vectors against a household: it decodes the
// vector into per-part schedules, simulates forked parts over the horizon and
// sums their cost.
//
// A Problem is safe for concurrent use.
type Problem[S Vector] struct {
	tr      translate.Translator[S]
	engine  *simulation.Engine
	parts   []device.Part
	horizon simulation.Horizon
	layout  translate.Layout
	blocks  [][]translate.VariableInfo
	pricing Pricing
	workers int
	log     logger.Logger
}

// New builds a problem from part templates. The parts are never stepped.
func New[S Vector](tr translate.Translator[S], grids []grid.Grid, parts []device.Part, cfg Config) (*Problem[S], error) {
	if err := cfg.Horizon.Validate(); err != nil {
		return nil, err
	}
	log := logger.OrNop(cfg.Logger)
	entities := make([]simulation.Entity, len(parts))
	for i, p := range parts {
		entities[i] = p
	}
	engine, err := simulation.New(grids, entities, log)
	if err != nil {
		return nil, err
	}
	p := &Problem[S]{
		tr:      tr,
		engine:  engine,
		parts:   parts,
		horizon: cfg.Horizon,
		blocks:  make([][]translate.VariableInfo, len(parts)),
		pricing: cfg.Pricing,
		workers: cfg.Workers,
		log:     log,
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	for i, part := range parts {
		for j, shape := range part.Shapes(cfg.Horizon) {
			info, err := tr.Describe(shape)
			if err != nil {
				return nil, fmt.Errorf("%s block %d: %w", part.Name(), j, err)
			}
			p.blocks[i] = append(p.blocks[i], p.layout.Add(info))
		}
	}
	log.Infof("problem: %d parts, %d variables blocks, vector length %d (%s)",
		len(parts), len(p.layout.Blocks), p.layout.Len(), tr.Scheme())
	return p, nil
}

// Len returns the candidate vector length.
func (p *Problem[S]) Len() int { return p.layout.Len() }

// Layout returns the placement of every decision block.
func (p *Problem[S]) Layout() translate.Layout { return p.layout }

// Blocks returns the blocks of part i.
func (p *Problem[S]) Blocks(i int) []translate.VariableInfo { return p.blocks[i] }

// Parts returns the part templates.
func (p *Problem[S]) Parts() []device.Part { return p.parts }

// Horizon returns the simulated horizon.
func (p *Problem[S]) Horizon() simulation.Horizon { return p.horizon }

// Translator returns the translator candidates are decoded with.
func (p *Problem[S]) Translator() translate.Translator[S] { return p.tr }

// Classification returns the active/passive split of the parts.
func (p *Problem[S]) Classification() simulation.Classification {
	return p.engine.Classification()
}

// Decode decodes s into the values of each part, in part order.
func (p *Problem[S]) Decode(s S) ([][]translate.Values, error) {
	if len(s) != p.layout.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(s), p.layout.Len())
	}
	out := make([][]translate.Values, len(p.parts))
	for i, infos := range p.blocks {
		for _, info := range infos {
			v, err := translate.Decode(p.tr, s, info)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.parts[i].Name(), err)
			}
			out[i] = append(out[i], v)
		}
	}
	return out, nil
}

// Evaluation is the outcome of simulating one candidate.
type Evaluation struct {
	// Cost is PartCost plus MeterCost.
	Cost      float64              `json:"cost"`
	PartCost  float64              `json:"part_cost"`
	MeterCost float64              `json:"meter_cost"`
	Summary   Summary              `json:"summary"`
	Parts     []device.Result      `json:"parts"`
	Meter     *profile.LoadProfile `json:"-"`
}

// Evaluate simulates one candidate on freshly forked parts.
func (p *Problem[S]) Evaluate(ctx context.Context, s S) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	ev, err := p.evaluate(s)
	evaluationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		evaluationErrors.Inc()
		return nil, err
	}
	evaluationsTotal.Inc()
	return ev, nil
}

func (p *Problem[S]) evaluate(s S) (*Evaluation, error) {
	values, err := p.Decode(s)
	if err != nil {
		return nil, err
	}
	forks := device.Fork(p.parts)
	entities := make([]simulation.Entity, len(forks))
	for i, f := range forks {
		if err := f.Init(p.horizon); err != nil {
			return nil, err
		}
		if err := f.Apply(values[i]); err != nil {
			return nil, err
		}
		entities[i] = f
	}
	meter, err := p.engine.Simulate(entities, p.horizon)
	if err != nil {
		return nil, err
	}
	ev := &Evaluation{Meter: meter, Parts: make([]device.Result, 0, len(forks))}
	for _, f := range forks {
		res, err := f.Finalize()
		if err != nil {
			return nil, err
		}
		ev.PartCost += res.Cost
		ev.Parts = append(ev.Parts, res)
	}
	ev.Summary = Summarize(meter, p.horizon)
	ev.MeterCost = p.pricing.Cost(ev.Summary)
	ev.Cost = ev.PartCost + ev.MeterCost
	return ev, nil
}

// EvaluateBatch evaluates candidates concurrently and returns their
// evaluations in input order. The first error cancels the remaining
// candidates; the context is checked only between candidates.
func (p *Problem[S]) EvaluateBatch(ctx context.Context, candidates []S) ([]*Evaluation, error) {
	out := make([]*Evaluation, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, s := range candidates {
		i, s := i, s // per-iteration copies (go 1.21 loop semantics)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ev, err := p.Evaluate(gctx, s)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
