package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/ehsim/config"
	coremetrics "github.com/kilianp07/ehsim/core/metrics"
	"github.com/kilianp07/ehsim/core/optimize"
	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/problem/logging"
	"github.com/kilianp07/ehsim/infra/logger"
	"github.com/kilianp07/ehsim/infra/metrics"
	"github.com/kilianp07/ehsim/infra/mqtt"
	"github.com/kilianp07/ehsim/internal/eventbus"
)

// Service wires a household, its evaluation problem and the result outputs.
// Run may be called once.
type Service struct {
	*Household
	sink  coremetrics.ResultSink
	store logging.Store
	pub   mqtt.Publisher
	bus   *eventbus.Bus[optimize.Progress]
	log   logger.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the sinks configured under metrics.sinks.
func WithSink(s coremetrics.ResultSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the configured evaluation log.
func WithStore(s logging.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the MQTT schedule publisher.
func WithPublisher(p mqtt.Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration. Outputs that are not
// replaced by an option are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	hh, err := LoadHousehold(cfg)
	if err != nil {
		return nil, err
	}
	svc := &Service{Household: hh, bus: eventbus.New[optimize.Progress](0)}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewResultSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("result sink: %w", err)
		}
	}
	if svc.store == nil {
		if svc.store, err = logging.Open(cfg.Logging.Store()); err != nil {
			return nil, fmt.Errorf("evaluation log: %w", err)
		}
	}
	if svc.pub == nil && cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

// Bus returns the progress bus of the optimiser.
func (s *Service) Bus() *eventbus.Bus[optimize.Progress] { return s.bus }

// Outcome is the result of one optimisation run.
type Outcome struct {
	RunID       string
	Instance    string
	Evaluations int
	Evaluation  *problem.Evaluation
	Schedule    *problem.Snapshot
	// Vector is the winning candidate in the text form accepted by decode.
	Vector    string
	Instances []optimize.InstanceResult
	Stats     optimize.Stats
}

// Run optimises the household schedule and reports the winner to the
// configured outputs.
func (s *Service) Run(ctx context.Context) (*Outcome, error) {
	if addr := s.cfg.Metrics.PrometheusPort; addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.StartPromServer(srvCtx, addr, nil, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	done := metrics.StartProgressCollector(ctx, s.bus, s.sink, s.log)
	defer func() {
		s.bus.Close()
		<-done
		if n := s.bus.Dropped(); n > 0 {
			s.log.Debugf("progress: %d events dropped", n)
		}
	}()

	opt := s.cfg.Optimizer
	if s.cfg.Encoding.Representation == "real" {
		p, err := s.RealProblem()
		if err != nil {
			return nil, err
		}
		return run(ctx, s, p, optimize.GaussSpace{N: p.Len(), Sigma: opt.Sigma, Rate: opt.MutationRate}, FormatReal)
	}
	p, err := s.BinaryProblem()
	if err != nil {
		return nil, err
	}
	return run(ctx, s, p, optimize.BitSpace{N: p.Len(), Rate: opt.MutationRate}, FormatBinary)
}

func algorithms[S problem.Vector](cfg config.OptimizerConfig, space optimize.Space[S]) []optimize.Algorithm[S] {
	algs := make([]optimize.Algorithm[S], cfg.Instances)
	for i := range algs {
		if cfg.Algorithm == "random" {
			algs[i] = optimize.RandomSearch[S]{Space: space, BatchSize: cfg.BatchSize}
		} else {
			algs[i] = optimize.HillClimber[S]{Space: space, Neighbours: cfg.Neighbours, Patience: cfg.Patience}
		}
	}
	return algs
}

func run[S problem.Vector](ctx context.Context, s *Service, p *problem.Problem[S], space optimize.Space[S], format func(S) string) (*Outcome, error) {
	if p.Len() == 0 {
		return nil, ErrNothingToOptimize
	}
	runner, err := optimize.NewRunner[S](p, algorithms(s.cfg.Optimizer, space), optimize.RunnerConfig{
		Seed:   s.cfg.Optimizer.Seed,
		Budget: s.cfg.Optimizer.Evaluations,
		Bus:    s.bus,
		Logger: logger.New("optimizer"),
	})
	if err != nil {
		return nil, err
	}
	runner.OnImprove(func(instance string, c optimize.Candidate[S]) {
		snap, err := p.Snapshot(c.Solution)
		if err != nil {
			s.log.Warnf("snapshot: %v", err)
			return
		}
		rec := logging.NewRecord(runner.RunID(), instance, c.Iteration, c.Evaluation, snap)
		if err := s.store.Append(ctx, rec); err != nil {
			s.log.Warnf("evaluation log: %v", err)
		}
	})

	res, err := runner.Run(ctx)
	if err != nil && !(errors.Is(err, optimize.ErrNoCandidate) && ctx.Err() != nil) {
		return nil, err
	}
	if !res.Best.Valid() {
		return nil, ctx.Err()
	}
	snap, err := p.Snapshot(res.Best.Solution)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		RunID:      res.RunID,
		Instance:   res.BestInstance,
		Evaluation: res.Best.Evaluation,
		Schedule:   snap,
		Vector:     format(res.Best.Solution),
		Instances:  res.Instances,
		Stats:      res.Stats,
	}
	for _, in := range res.Instances {
		out.Evaluations += in.Evaluations
	}
	s.report(ctx, out)
	return out, nil
}

// report forwards the outcome to the sinks and the MQTT publisher. Output
// failures are logged and do not fail the run.
func (s *Service) report(ctx context.Context, out *Outcome) {
	rr := coremetrics.NewRunResult(out.RunID, out.Instance, out.Evaluations, out.Evaluation)
	if err := s.sink.RecordRun(rr); err != nil {
		s.log.Errorf("record run: %v", err)
	}
	if rec, ok := s.sink.(coremetrics.MeterRecorder); ok && out.Evaluation.Meter != nil {
		if err := rec.RecordMeter(out.RunID, coremetrics.MeterSamples(out.Evaluation.Meter, s.horizon)); err != nil {
			s.log.Errorf("record meter: %v", err)
		}
	}
	if s.pub != nil {
		msg := mqtt.ScheduleMessage{RunID: out.RunID, Time: time.Now().UTC(), Cost: out.Evaluation.Cost, Schedule: out.Schedule}
		if err := s.pub.PublishSchedule(ctx, msg); err != nil {
			s.log.Errorf("publish schedule: %v", err)
		}
	}
	s.log.Infof("run %s: cost %.4f (parts %.4f, meter %.4f) after %d evaluations",
		out.RunID, out.Evaluation.Cost, out.Evaluation.PartCost, out.Evaluation.MeterCost, out.Evaluations)
}

// Close releases the evaluation log and the publisher.
func (s *Service) Close() error {
	if s.pub != nil {
		s.pub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.store.Close()
}
