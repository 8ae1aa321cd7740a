package metrics

import "github.com/kilianp07/ehsim/core/factory"

// Config defines settings for result sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort serves /metrics when not empty, e.g. ":9100".
	PrometheusPort string `json:"prometheus_port"`
}
