package optimize

import (
	"context"
	"math/rand"

	"github.com/kilianp07/ehsim/core/problem"
)

// HillClimber is a steepest-descent local search with random restarts.
type HillClimber[S problem.Vector] struct {
	Space Space[S]
	// Neighbours is the number of mutants evaluated per step, 8 when zero.
	Neighbours int
	// Patience is the number of steps without improvement before a restart
	// from a random point. Zero never restarts.
	Patience int
	// Start is the first point; a random one is drawn when its length does
	// not match the space.
	Start S
}

func (h HillClimber[S]) Name() string { return "hillclimb" }

func (h HillClimber[S]) Run(ctx context.Context, rng *rand.Rand, eval Evaluator[S], budget int, improve func(Candidate[S])) (Candidate[S], error) {
	t := &tracker[S]{eval: eval, budget: budget, improve: improve}
	n := h.Neighbours
	if n <= 0 {
		n = 8
	}
	start := h.Start
	if len(start) != h.Space.Len() {
		start = h.Space.Random(rng)
	}
	cur, err := h.restart(ctx, t, start)
	if err != nil || !cur.Valid() {
		return t.best, err
	}
	stall := 0
	for t.left() > 0 {
		cands := make([]S, n)
		for i := range cands {
			cands[i] = h.Space.Neighbour(rng, cur.Solution)
		}
		evaluated, err := t.evaluate(ctx, cands)
		if err != nil {
			return t.best, err
		}
		next := cur
		for _, c := range evaluated {
			if c.Better(next) {
				next = c
			}
		}
		if next.Iteration != cur.Iteration {
			cur, stall = next, 0
			continue
		}
		stall++
		if h.Patience > 0 && stall >= h.Patience {
			if cur, err = h.restart(ctx, t, h.Space.Random(rng)); err != nil || !cur.Valid() {
				return t.best, err
			}
			stall = 0
		}
	}
	return t.best, nil
}

func (h HillClimber[S]) restart(ctx context.Context, t *tracker[S], s S) (Candidate[S], error) {
	out, err := t.evaluate(ctx, []S{s})
	if err != nil || len(out) == 0 {
		return Candidate[S]{}, err
	}
	return out[0], nil
}
