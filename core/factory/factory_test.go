package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/core/commodity"
)

type sample struct{ A int }

type sampleConf struct {
	A int                 `json:"a"`
	C commodity.Commodity `json:"c"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, inst.A)
	assert.Equal(t, []string{"s"}, reg.Types())
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, "unknown module type")
}

func TestDecode(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"a": 2, "c": "hotwaterpower"}, &c))
	assert.Equal(t, commodity.HotWaterPower, c.C)

	assert.Error(t, Decode(map[string]any{"b": 2}, &c))
	assert.Error(t, Decode(map[string]any{"c": "steam"}, &c))
}

func TestTyped(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("typed", Typed(func(c sampleConf) (*sample, error) {
		return &sample{A: c.A * 2}, nil
	})))

	inst, err := reg.Create(ModuleConfig{Type: "typed", Conf: map[string]any{"a": "4"}})
	require.NoError(t, err)
	assert.Equal(t, 8, inst.A)

	_, err = reg.Create(ModuleConfig{Type: "typed", Conf: map[string]any{"unknown": 1}})
	assert.Error(t, err)

	_, err = reg.Create(ModuleConfig{Type: "missing"})
	assert.ErrorIs(t, err, ErrUnknownType)
}
