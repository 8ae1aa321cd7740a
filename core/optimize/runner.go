package optimize

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/logger"
	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/internal/eventbus"
)

// Progress is published on every improvement of an instance.
type Progress struct {
	RunID      string    `json:"run_id"`
	Instance   string    `json:"instance"`
	Iteration  int       `json:"iteration"`
	Cost       float64   `json:"cost"`
	GlobalBest bool      `json:"global_best"`
	Time       time.Time `json:"time"`
}

// RunnerConfig holds the settings shared by all instances.
type RunnerConfig struct {
	// RunID identifies the run; a random one is generated when empty.
	RunID string
	Seed  int64
	// Budget is the number of evaluations per instance.
	Budget int
	Bus    *eventbus.Bus[Progress]
	Logger logger.Logger
}

// Runner runs algorithm instances concurrently against one evaluator.
type Runner[S problem.Vector] struct {
	eval      Evaluator[S]
	instances []Algorithm[S]
	cfg       RunnerConfig
	log       logger.Logger
	onImprove func(instance string, c Candidate[S])
}

// NewRunner validates the configuration and returns a runner.
func NewRunner[S problem.Vector](eval Evaluator[S], instances []Algorithm[S], cfg RunnerConfig) (*Runner[S], error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("at least one algorithm instance is required")
	}
	if cfg.Budget <= 0 {
		return nil, fmt.Errorf("evaluation budget must be positive, got %d", cfg.Budget)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Runner[S]{eval: eval, instances: instances, cfg: cfg, log: logger.OrNop(cfg.Logger)}, nil
}

// OnImprove sets a hook called from instance goroutines for every
// improvement. fn must be safe for concurrent use.
func (r *Runner[S]) OnImprove(fn func(instance string, c Candidate[S])) { r.onImprove = fn }

// RunID returns the run identifier.
func (r *Runner[S]) RunID() string { return r.cfg.RunID }

// InstanceName returns the name of instance i.
func (r *Runner[S]) InstanceName(i int) string {
	return fmt.Sprintf("%s-%d", r.instances[i].Name(), i)
}

// Run starts every instance and waits for all of them.
func (r *Runner[S]) Run(ctx context.Context) (*Result[S], error) {
	col := NewCollector[S]()
	rngs := make([]*rand.Rand, len(r.instances))
	for i := range r.instances {
		rngs[i] = NewRand(r.cfg.Seed, r.InstanceName(i))
	}
	r.log.Infof("run %s: %d instances, %d evaluations each", r.cfg.RunID, len(r.instances), r.cfg.Budget)

	var wg sync.WaitGroup
	for i, alg := range r.instances {
		i, alg := i, alg // per-iteration copies (go 1.21 loop semantics)
		name := r.InstanceName(i)
		eval := &counter[S]{Evaluator: r.eval}
		wg.Add(1)
		go func() {
			defer wg.Done()
			best, err := alg.Run(ctx, rngs[i], eval, r.cfg.Budget, func(c Candidate[S]) {
				r.improved(col, name, c)
			})
			col.Finish(name, best, eval.n, err)
			if err != nil {
				r.log.Warnf("instance %s stopped: %v", name, err)
			}
		}()
	}
	wg.Wait()

	res, err := col.Result(r.cfg.RunID)
	if res.Best.Valid() {
		r.log.Infof("run %s: best cost %.4f from %s", r.cfg.RunID, res.Best.Evaluation.Cost, res.BestInstance)
	}
	return res, err
}

func (r *Runner[S]) improved(col *Collector[S], name string, c Candidate[S]) {
	global := col.Offer(name, c)
	bestCost.WithLabelValues(name).Set(c.Evaluation.Cost)
	improvements.WithLabelValues(name).Inc()
	r.log.Debugf("instance %s: cost %.4f at evaluation %d", name, c.Evaluation.Cost, c.Iteration)
	if r.onImprove != nil {
		r.onImprove(name, c)
	}
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(Progress{
			RunID:      r.cfg.RunID,
			Instance:   name,
			Iteration:  c.Iteration,
			Cost:       c.Evaluation.Cost,
			GlobalBest: global,
			Time:       time.Now(),
		})
	}
}

// counter counts evaluations of one instance. It is used from a single
// goroutine.
type counter[S problem.Vector] struct {
	Evaluator[S]
	n int
}

func (c *counter[S]) EvaluateBatch(ctx context.Context, cands []S) ([]*problem.Evaluation, error) {
	evs, err := c.Evaluator.EvaluateBatch(ctx, cands)
	if err == nil {
		c.n += len(evs)
	}
	return evs, err
}
