package metrics

import "github.com/kilianp07/ehsim/core/factory"

var sinkRegistry = factory.NewRegistry[ResultSink]()

// RegisterResultSink adds a result sink factory identified by name.
func RegisterResultSink(name string, f factory.Factory[ResultSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewResultSink creates a ResultSink from the provided configuration.
func NewResultSink(cfgs []factory.ModuleConfig) (ResultSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]ResultSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

func init() {
	_ = RegisterResultSink("nop", func(map[string]any) (ResultSink, error) {
		return NopSink{}, nil
	})
}
