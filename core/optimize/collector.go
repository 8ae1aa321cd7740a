package optimize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ehsim/core/problem"
)

// InstanceResult is the outcome of one algorithm instance.
type InstanceResult struct {
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	Evaluations  int     `json:"evaluations"`
	Improvements int     `json:"improvements"`
	Error        string  `json:"error,omitempty"`

	found bool
	err   error
}

// Stats summarises the best costs of all instances that found a candidate.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Result is the joined outcome of a run.
type Result[S problem.Vector] struct {
	RunID        string           `json:"run_id"`
	Best         Candidate[S]     `json:"-"`
	BestInstance string           `json:"best_instance"`
	Instances    []InstanceResult `json:"instances"`
	Stats        Stats            `json:"stats"`
}

// Collector gathers improvements and final results of concurrent
// instances. It is safe for concurrent use.
type Collector[S problem.Vector] struct {
	mu        sync.Mutex
	best      Candidate[S]
	bestName  string
	instances map[string]*InstanceResult
}

// NewCollector returns an empty collector.
func NewCollector[S problem.Vector]() *Collector[S] {
	return &Collector[S]{instances: make(map[string]*InstanceResult)}
}

func (c *Collector[S]) instance(name string) *InstanceResult {
	r, ok := c.instances[name]
	if !ok {
		r = &InstanceResult{Name: name}
		c.instances[name] = r
	}
	return r
}

// Offer records an improvement of instance and reports whether it is the
// new global best.
func (c *Collector[S]) Offer(instance string, cand Candidate[S]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.instance(instance)
	r.Improvements++
	if cand.Valid() {
		r.Cost, r.found = cand.Evaluation.Cost, true
	}
	if !cand.Better(c.best) {
		return false
	}
	c.best, c.bestName = cand, instance
	return true
}

// Finish records the final state of instance.
func (c *Collector[S]) Finish(instance string, best Candidate[S], evaluations int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.instance(instance)
	r.Evaluations = evaluations
	if best.Valid() {
		r.Cost, r.found = best.Evaluation.Cost, true
		if best.Better(c.best) {
			c.best, c.bestName = best, instance
		}
	}
	if err != nil {
		r.err = err
		r.Error = err.Error()
	}
}

// Best returns the global best so far.
func (c *Collector[S]) Best() (string, Candidate[S]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bestName, c.best
}

// Result joins the instances. Cancellation of the context is not an error
// when at least one candidate was found; other instance errors are joined.
func (c *Collector[S]) Result(runID string) (*Result[S], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := &Result[S]{RunID: runID, Best: c.best, BestInstance: c.bestName}
	names := make([]string, 0, len(c.instances))
	for n := range c.instances {
		names = append(names, n)
	}
	sort.Strings(names)
	var (
		errs  []error
		costs []float64
	)
	for _, n := range names {
		r := c.instances[n]
		res.Instances = append(res.Instances, *r)
		if r.err != nil && !errors.Is(r.err, context.Canceled) && !errors.Is(r.err, context.DeadlineExceeded) {
			errs = append(errs, fmt.Errorf("%s: %w", n, r.err))
		}
		if r.found {
			costs = append(costs, r.Cost)
		}
	}
	if len(costs) > 0 {
		res.Stats = Stats{Min: floats.Min(costs), Max: floats.Max(costs), Mean: stat.Mean(costs, nil)}
		if len(costs) > 1 {
			res.Stats.StdDev = stat.StdDev(costs, nil)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return res, err
	}
	if !c.best.Valid() {
		return res, ErrNoCandidate
	}
	return res, nil
}
