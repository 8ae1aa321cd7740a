package problem

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationsTotal  prometheus.Counter
	evaluationErrors  prometheus.Counter
	evaluationLatency prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	total := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ehsim_evaluations_total",
			Help: "Number of simulated candidate evaluations",
		},
	)
	errs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ehsim_evaluation_errors_total",
			Help: "Number of candidate evaluations that failed",
		},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ehsim_evaluation_duration_seconds",
			Help:    "Wall time of one candidate evaluation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
	return total, errs, lat
}

func init() {
	evaluationsTotal, evaluationErrors, evaluationLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers evaluation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(evaluationsTotal, evaluationErrors, evaluationLatency)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	evaluationsTotal, evaluationErrors, evaluationLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
