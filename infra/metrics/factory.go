package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ehsim/core/factory"
	coremetrics "github.com/kilianp07/ehsim/core/metrics"
)

// InfluxConfig addresses the bucket run results are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

func init() {
	_ = coremetrics.RegisterResultSink("prometheus", func(map[string]any) (coremetrics.ResultSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})
	_ = coremetrics.RegisterResultSink("influx", factory.Typed(func(c InfluxConfig) (coremetrics.ResultSink, error) {
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	}))
}
