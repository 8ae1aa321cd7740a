package device

import (
	"fmt"

	"github.com/kilianp07/ehsim/core/factory"
)

var registry = factory.NewRegistry[Part]()

func init() {
	_ = Register("chp", asPart(NewCHP))
	_ = Register("watertank", asPart(NewWaterTank))
	_ = Register("chiller", asPart(NewChiller))
	_ = Register("replay", asPart(NewLoadReplay))
}

// asPart wraps a concrete constructor so a failed build yields a nil Part
// rather than a typed nil.
func asPart[C any, P Part](build func(C) (P, error)) factory.Factory[Part] {
	return factory.Typed(func(c C) (Part, error) {
		p, err := build(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Register adds a device factory identified by name.
func Register(name string, f factory.Factory[Part]) error {
	return registry.Register(name, f)
}

// New creates a device template from its configuration.
func New(cfg factory.ModuleConfig) (Part, error) {
	p, err := registry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", cfg.Type, err)
	}
	return p, nil
}

// NewAll creates every configured device and rejects duplicate ids.
func NewAll(cfgs []factory.ModuleConfig) ([]Part, error) {
	parts := make([]Part, 0, len(cfgs))
	seen := make(map[string]bool, len(cfgs))
	for i, c := range cfgs {
		p, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("devices[%d]: %w", i, err)
		}
		if seen[p.ID().String()] {
			return nil, fmt.Errorf("devices[%d]: duplicate id %s", i, p.ID())
		}
		seen[p.ID().String()] = true
		parts = append(parts, p)
	}
	return parts, nil
}

// Fork forks every part.
func Fork(parts []Part) []Part {
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p.Fork()
	}
	return out
}

var (
	_ Part = (*CHP)(nil)
	_ Part = (*WaterTank)(nil)
	_ Part = (*Chiller)(nil)
	_ Part = (*LoadReplay)(nil)

	_ Switchable = (*CHP)(nil)
	_ Switchable = (*Chiller)(nil)
)
