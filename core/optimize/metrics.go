package optimize

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	bestCost     *prometheus.GaugeVec
	improvements *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.GaugeVec, *prometheus.CounterVec) {
	best := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ehsim_best_cost",
			Help: "Best candidate cost found by an optimizer instance",
		},
		[]string{"instance"},
	)
	imp := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehsim_improvements_total",
			Help: "Number of improving candidates found by an optimizer instance",
		},
		[]string{"instance"},
	)
	return best, imp
}

func init() {
	bestCost, improvements = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers optimizer metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(bestCost, improvements)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	bestCost, improvements = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
