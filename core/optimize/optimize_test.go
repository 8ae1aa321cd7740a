package optimize

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/internal/eventbus"
)

// ones scores a binary vector by its number of set bits.
type ones struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (o *ones) EvaluateBatch(ctx context.Context, cands [][]bool) ([]*problem.Evaluation, error) {
	if o.fail != nil {
		return nil, o.fail
	}
	o.mu.Lock()
	o.calls += len(cands)
	o.mu.Unlock()
	out := make([]*problem.Evaluation, len(cands))
	for i, c := range cands {
		n := 0
		for _, b := range c {
			if b {
				n++
			}
		}
		out[i] = &problem.Evaluation{Cost: float64(n)}
	}
	return out, nil
}

// sphere scores a real vector by its squared distance to 0.25.
type sphere struct{}

func (sphere) EvaluateBatch(ctx context.Context, cands [][]float64) ([]*problem.Evaluation, error) {
	out := make([]*problem.Evaluation, len(cands))
	for i, c := range cands {
		var d float64
		for _, v := range c {
			d += (v - 0.25) * (v - 0.25)
		}
		out[i] = &problem.Evaluation{Cost: d}
	}
	return out, nil
}

func TestInstanceSeed(t *testing.T) {
	assert.Equal(t, int64(5), InstanceSeed(0, "random-0")^InstanceSeed(5, "random-0"))
	assert.NotEqual(t, InstanceSeed(1, "random-0"), InstanceSeed(1, "random-1"))

	a, b := NewRand(7, "x"), NewRand(7, "x")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestBitSpaceNeighbour(t *testing.T) {
	rng := NewRand(1, "bits")
	sp := BitSpace{N: 16}
	s := sp.Random(rng)
	orig := append([]bool(nil), s...)
	for i := 0; i < 100; i++ {
		n := sp.Neighbour(rng, s)
		require.Len(t, n, 16)
		assert.NotEqual(t, s, n)
	}
	assert.Equal(t, orig, s)
	assert.Empty(t, BitSpace{}.Neighbour(rng, nil))
}

func TestGaussSpaceStaysInUnitInterval(t *testing.T) {
	rng := NewRand(1, "gauss")
	sp := GaussSpace{N: 8, Sigma: 2, Rate: 1}
	s := sp.Random(rng)
	for i := 0; i < 100; i++ {
		s = sp.Neighbour(rng, s)
		for _, v := range s {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRandomSearchRespectsBudget(t *testing.T) {
	eval := &ones{}
	var costs []float64
	alg := RandomSearch[[]bool]{Space: BitSpace{N: 10}, BatchSize: 16}
	best, err := alg.Run(context.Background(), NewRand(3, "r"), eval, 50, func(c Candidate[[]bool]) {
		costs = append(costs, c.Evaluation.Cost)
	})
	require.NoError(t, err)
	assert.Equal(t, 50, eval.calls)
	require.NotEmpty(t, costs)
	for i := 1; i < len(costs); i++ {
		assert.Less(t, costs[i], costs[i-1])
	}
	assert.Equal(t, costs[len(costs)-1], best.Evaluation.Cost)
	assert.LessOrEqual(t, best.Iteration, 50)
}

func TestHillClimberSolvesOneMax(t *testing.T) {
	eval := &ones{}
	alg := HillClimber[[]bool]{Space: BitSpace{N: 12}, Patience: 50}
	best, err := alg.Run(context.Background(), NewRand(11, "h"), eval, 2000, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, best.Evaluation.Cost)
	assert.LessOrEqual(t, eval.calls, 2000)
}

func TestHillClimberStart(t *testing.T) {
	alg := HillClimber[[]bool]{Space: BitSpace{N: 4}, Start: []bool{false, false, false, false}}
	best, err := alg.Run(context.Background(), NewRand(1, "h"), &ones{}, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, best.Evaluation.Cost)
	assert.Equal(t, 1, best.Iteration)
}

func TestHillClimberReals(t *testing.T) {
	alg := HillClimber[[]float64]{Space: GaussSpace{N: 3, Sigma: 0.05}}
	best, err := alg.Run(context.Background(), NewRand(5, "g"), sphere{}, 3000, nil)
	require.NoError(t, err)
	assert.Less(t, best.Evaluation.Cost, 0.01)
}

func TestRunnerIsReproducible(t *testing.T) {
	run := func() *Result[[]bool] {
		instances := []Algorithm[[]bool]{
			RandomSearch[[]bool]{Space: BitSpace{N: 24}},
			RandomSearch[[]bool]{Space: BitSpace{N: 24}},
			HillClimber[[]bool]{Space: BitSpace{N: 24}},
		}
		r, err := NewRunner[[]bool](&ones{}, instances, RunnerConfig{RunID: "run", Seed: 42, Budget: 64})
		require.NoError(t, err)
		res, err := r.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Instances, b.Instances)
	require.Len(t, a.Instances, 3)
	assert.Equal(t, []string{"hillclimb-2", "random-0", "random-1"},
		[]string{a.Instances[0].Name, a.Instances[1].Name, a.Instances[2].Name})
	for _, in := range a.Instances {
		assert.Equal(t, 64, in.Evaluations)
		assert.GreaterOrEqual(t, in.Cost, a.Best.Evaluation.Cost)
	}
	assert.Equal(t, a.Best.Evaluation.Cost, a.Stats.Min)
}

func TestRunnerPublishesProgress(t *testing.T) {
	ResetMetrics(prometheus.NewRegistry())
	bus := eventbus.New[Progress](0)
	sub := bus.Subscribe()
	r, err := NewRunner[[]bool](&ones{}, []Algorithm[[]bool]{
		RandomSearch[[]bool]{Space: BitSpace{N: 8}},
	}, RunnerConfig{RunID: "p", Seed: 1, Budget: 32, Bus: bus})
	require.NoError(t, err)

	var mu sync.Mutex
	hooked := 0
	r.OnImprove(func(instance string, c Candidate[[]bool]) {
		mu.Lock()
		hooked++
		mu.Unlock()
		assert.Equal(t, "random-0", instance)
	})
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	ev := <-sub
	assert.Equal(t, "p", ev.RunID)
	assert.Equal(t, "random-0", ev.Instance)
	assert.True(t, ev.GlobalBest)
	assert.Equal(t, res.Instances[0].Improvements, hooked)
	assert.Equal(t, float64(hooked), testutil.ToFloat64(improvements.WithLabelValues("random-0")))
	assert.Equal(t, res.Best.Evaluation.Cost, testutil.ToFloat64(bestCost.WithLabelValues("random-0")))
}

func TestRunnerErrors(t *testing.T) {
	_, err := NewRunner[[]bool](&ones{}, nil, RunnerConfig{Budget: 1})
	assert.Error(t, err)
	_, err = NewRunner[[]bool](&ones{}, []Algorithm[[]bool]{RandomSearch[[]bool]{Space: BitSpace{N: 1}}}, RunnerConfig{})
	assert.Error(t, err)

	boom := errors.New("boom")
	r, err := NewRunner[[]bool](&ones{fail: boom}, []Algorithm[[]bool]{
		RandomSearch[[]bool]{Space: BitSpace{N: 4}},
	}, RunnerConfig{Budget: 8})
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())
	res, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "random-0")
	assert.Equal(t, "boom", res.Instances[0].Error)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := NewRunner[[]bool](&ones{}, []Algorithm[[]bool]{
		HillClimber[[]bool]{Space: BitSpace{N: 4}},
	}, RunnerConfig{Budget: 8})
	require.NoError(t, err)
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestCollectorStats(t *testing.T) {
	c := NewCollector[[]bool]()
	c.Finish("a", Candidate[[]bool]{Evaluation: &problem.Evaluation{Cost: 1}}, 10, nil)
	c.Finish("b", Candidate[[]bool]{Evaluation: &problem.Evaluation{Cost: 3}}, 10, context.DeadlineExceeded)
	c.Finish("c", Candidate[[]bool]{}, 0, context.Canceled)

	res, err := c.Result("r")
	require.NoError(t, err)
	assert.Equal(t, "a", res.BestInstance)
	assert.Equal(t, 1.0, res.Stats.Min)
	assert.Equal(t, 3.0, res.Stats.Max)
	assert.Equal(t, 2.0, res.Stats.Mean)
	assert.InDelta(t, math.Sqrt2, res.Stats.StdDev, 1e-12)
	assert.Len(t, res.Instances, 3)
}
