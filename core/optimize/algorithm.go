package optimize

import (
	"context"
	"errors"
	"math/rand"

	"github.com/kilianp07/ehsim/core/problem"
)

// ErrNoCandidate is returned when a run ends without any evaluated candidate.
var ErrNoCandidate = errors.New("no candidate evaluated")

// Evaluator scores candidates. *problem.Problem implements it.
type Evaluator[S problem.Vector] interface {
	EvaluateBatch(ctx context.Context, candidates []S) ([]*problem.Evaluation, error)
}

// Candidate is an evaluated solution vector.
type Candidate[S problem.Vector] struct {
	Solution   S
	Evaluation *problem.Evaluation
	// Iteration is the number of evaluations the instance had spent when the
	// candidate was found.
	Iteration int
}

// Valid reports whether c holds an evaluation.
func (c Candidate[S]) Valid() bool { return c.Evaluation != nil }

// Better reports whether c is cheaper than o. Any valid candidate beats an
// invalid one.
func (c Candidate[S]) Better(o Candidate[S]) bool {
	if !c.Valid() {
		return false
	}
	return !o.Valid() || c.Evaluation.Cost < o.Evaluation.Cost
}

// Algorithm is a black-box minimiser. Run spends at most budget evaluations
// and calls improve for every new best candidate. It uses only rng as source
// of randomness and returns its best candidate, also when it stops on error.
type Algorithm[S problem.Vector] interface {
	Name() string
	Run(ctx context.Context, rng *rand.Rand, eval Evaluator[S], budget int, improve func(Candidate[S])) (Candidate[S], error)
}

// tracker counts spent evaluations and keeps the best candidate.
type tracker[S problem.Vector] struct {
	eval    Evaluator[S]
	budget  int
	used    int
	best    Candidate[S]
	improve func(Candidate[S])
}

func (t *tracker[S]) left() int { return t.budget - t.used }

// evaluate scores cands, trimmed to the remaining budget, and returns the
// candidates in input order.
func (t *tracker[S]) evaluate(ctx context.Context, cands []S) ([]Candidate[S], error) {
	if n := t.left(); len(cands) > n {
		cands = cands[:n]
	}
	if len(cands) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evs, err := t.eval.EvaluateBatch(ctx, cands)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate[S], len(cands))
	for i, ev := range evs {
		t.used++
		out[i] = Candidate[S]{Solution: cands[i], Evaluation: ev, Iteration: t.used}
		if out[i].Better(t.best) {
			t.best = out[i]
			if t.improve != nil {
				t.improve(t.best)
			}
		}
	}
	return out, nil
}
