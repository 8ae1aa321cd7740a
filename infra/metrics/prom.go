package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ehsim/core/metrics"
)

// PromSink exposes the outcome of the last run as Prometheus gauges.
type PromSink struct {
	cost     *prometheus.GaugeVec
	energy   *prometheus.GaugeVec
	partCost *prometheus.GaugeVec
	starts   *prometheus.GaugeVec
	runs     prometheus.Counter
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ehsim_run_cost",
		Help: "Cost of the best candidate of the last run",
	}, []string{"kind"})
	energy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ehsim_meter_energy_kwh",
		Help: "Meter energy of the best candidate of the last run",
	}, []string{"flow"})
	partCost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ehsim_part_cost",
		Help: "Cost of each device in the best candidate of the last run",
	}, []string{"part"})
	starts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ehsim_part_starts",
		Help: "Switch-on events of each device in the best candidate of the last run",
	}, []string{"part"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ehsim_runs_total",
		Help: "Number of finished optimisation runs",
	})

	var err error
	if cost, err = register(reg, cost); err != nil {
		return nil, err
	}
	if energy, err = register(reg, energy); err != nil {
		return nil, err
	}
	if partCost, err = register(reg, partCost); err != nil {
		return nil, err
	}
	if starts, err = register(reg, starts); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{cost: cost, energy: energy, partCost: partCost, starts: starts, runs: runs}, nil
}

// register returns the already registered collector when c is a duplicate.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun sets the gauges to the values of res.
func (s *PromSink) RecordRun(res coremetrics.RunResult) error {
	s.runs.Inc()
	s.cost.WithLabelValues("total").Set(res.Cost)
	s.cost.WithLabelValues("parts").Set(res.PartCost)
	s.cost.WithLabelValues("meter").Set(res.MeterCost)
	s.energy.WithLabelValues("import").Set(res.Summary.ImportKWh)
	s.energy.WithLabelValues("export").Set(res.Summary.ExportKWh)
	s.energy.WithLabelValues("gas").Set(res.Summary.GasKWh)
	for _, p := range res.Parts {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		s.partCost.WithLabelValues(name).Set(p.Cost)
		s.starts.WithLabelValues(name).Set(float64(p.Starts))
	}
	return nil
}
