package optimize

import (
	"context"
	"math/rand"

	"github.com/kilianp07/ehsim/core/problem"
)

// RandomSearch samples the space uniformly in batches.
type RandomSearch[S problem.Vector] struct {
	Space Space[S]
	// BatchSize is the number of candidates evaluated together, 16 when
	// zero.
	BatchSize int
}

func (r RandomSearch[S]) Name() string { return "random" }

func (r RandomSearch[S]) Run(ctx context.Context, rng *rand.Rand, eval Evaluator[S], budget int, improve func(Candidate[S])) (Candidate[S], error) {
	t := &tracker[S]{eval: eval, budget: budget, improve: improve}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 16
	}
	for t.left() > 0 {
		cands := make([]S, min(batch, t.left()))
		for i := range cands {
			cands[i] = r.Space.Random(rng)
		}
		if _, err := t.evaluate(ctx, cands); err != nil {
			return t.best, err
		}
	}
	return t.best, nil
}
