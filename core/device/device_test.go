package device

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/factory"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
	"github.com/kilianp07/ehsim/core/translate"
)

const (
	chpID    = "20000000-0000-0000-0000-000000000001"
	tankID   = "20000000-0000-0000-0000-000000000002"
	chillID  = "20000000-0000-0000-0000-000000000003"
	replayID = "20000000-0000-0000-0000-000000000004"
)

var quarterHours = simulation.Horizon{Start: 0, Step: 900, Slots: 4}

func outMap(p Part) *state.Map { return state.NewMap(p.Commodities()...) }

func boolPlan(on ...bool) []translate.Values {
	return []translate.Values{{Type: translate.Boolean, Booleans: on}}
}

func TestCHPFollowsPlan(t *testing.T) {
	tmpl, err := NewCHP(CHPConfig{ID: chpID, ActivationSeconds: 1800, StartCost: 2})
	require.NoError(t, err)
	assert.Equal(t, []translate.Shape{{Type: translate.Boolean, Count: 2}}, tmpl.Shapes(quarterHours))

	c := tmpl.Fork()
	assert.ErrorIs(t, c.Apply(boolPlan(true, false)), ErrNotInitialized)
	require.NoError(t, c.Init(quarterHours))
	require.NoError(t, c.Apply(boolPlan(true, false)))

	in := outMap(c)
	var el []float64
	for i := 0; i < quarterHours.Slots; i++ {
		out := outMap(c)
		require.NoError(t, c.Step(in, out))
		el = append(el, out.Power(commodity.ActivePower))
		if i >= 2 {
			assert.True(t, out.IsEmpty(), "slot %d", i)
		}
	}
	assert.Equal(t, []float64{-5500, -5500, 0, 0}, el)

	_, err = c.Finalize()
	require.NoError(t, err)
	_, err = c.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestCHPResult(t *testing.T) {
	tmpl, err := NewCHP(CHPConfig{ID: chpID, Name: "chp", ActivationSeconds: 1800, StartCost: 2})
	require.NoError(t, err)
	c := tmpl.Fork()
	require.NoError(t, c.Init(quarterHours))
	require.NoError(t, c.Apply(boolPlan(true, false)))
	for i := 0; i < quarterHours.Slots; i++ {
		require.NoError(t, c.Step(nil, outMap(c)))
	}
	_, _, err = c.(*CHP).advance()
	assert.ErrorIs(t, err, ErrHorizonExceeded)

	res, err := c.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "chp", res.Name)
	assert.Equal(t, 2.0, res.Cost)
	assert.Equal(t, 1, res.Starts)
	assert.Equal(t, []profile.Point{{T: 0, V: -5500}, {T: 1800, V: 0}}, res.Profile.Points(commodity.ActivePower))
	assert.Equal(t, 20500.0*1800, res.Profile.Energy(commodity.NaturalGasPower))
}

func TestCHPHysteresisOverridesPlan(t *testing.T) {
	tmpl, err := NewCHP(CHPConfig{ID: chpID, ForcedPenalty: 5})
	require.NoError(t, err)
	c := tmpl.Fork()
	require.NoError(t, c.Init(quarterHours))
	require.NoError(t, c.Apply([]translate.Values{{
		Type:        translate.Boolean,
		Transitions: []translate.Transition{translate.TurnOff, translate.Hold, translate.TurnOn, translate.Hold},
	}}))

	in := outMap(c)
	step := func(temp float64) *state.Map {
		in.Clear()
		in.SetTemperature(commodity.HotWaterPower, temp)
		out := outMap(c)
		require.NoError(t, c.Step(in, out))
		return out
	}
	assert.False(t, step(50).IsEmpty(), "cold return forces the unit on")
	assert.Equal(t, 5.0, c.Cost())
	assert.False(t, step(70).IsEmpty(), "hold keeps it running")
	assert.True(t, step(90).IsEmpty(), "hot return forces it off")
	assert.Equal(t, 10.0, c.Cost())
	assert.True(t, step(70).IsEmpty())
}

func TestCHPWarmUp(t *testing.T) {
	tmpl, err := NewCHP(CHPConfig{ID: chpID, WarmUpSeconds: 1800})
	require.NoError(t, err)
	c := tmpl.Fork()
	require.NoError(t, c.Init(quarterHours))
	require.NoError(t, c.Apply(boolPlan(true, true, true, true)))
	var th []float64
	for i := 0; i < quarterHours.Slots; i++ {
		out := outMap(c)
		require.NoError(t, c.Step(nil, out))
		th = append(th, out.Power(commodity.HotWaterPower))
	}
	assert.InDeltaSlice(t, []float64{-3125, -9375, -12500, -12500}, th, 1e-9)
}

func TestForksAreIndependent(t *testing.T) {
	tmpl, err := NewCHP(CHPConfig{ID: chpID, WarmUpSeconds: 1800})
	require.NoError(t, err)
	a, b := tmpl.Fork(), tmpl.Fork()
	require.NoError(t, a.Init(quarterHours))
	require.NoError(t, a.Apply(boolPlan(true, true, true, true)))
	require.NoError(t, a.Step(nil, outMap(a)))
	require.NoError(t, a.Step(nil, outMap(a)))

	require.NoError(t, b.Init(quarterHours))
	require.NoError(t, b.Apply(boolPlan(true, true, true, true)))
	out := outMap(b)
	require.NoError(t, b.Step(nil, out))
	assert.InDelta(t, -3125, out.Power(commodity.HotWaterPower), 1e-9)

	assert.Equal(t, Uninitialized, tmpl.Phase())
	assert.False(t, tmpl.Running())
	assert.Equal(t, a.ID(), b.ID())
}

func TestWaterTankHeatsAndReports(t *testing.T) {
	tmpl, err := NewWaterTank(TankConfig{
		ID: tankID, InitialTemperature: 60, AmbientTemperature: 60,
		ComfortMin: 65, ComfortMax: 90, ComfortPenalty: 1,
	})
	require.NoError(t, err)
	w := tmpl.Fork()
	h := simulation.Horizon{Step: 3600, Slots: 2}
	require.NoError(t, w.Init(h))
	require.NoError(t, w.Apply(nil))

	in := state.NewMap(commodity.HotWaterPower)
	in.SetPower(commodity.HotWaterPower, -3000)
	out := state.NewMap(commodity.HotWaterPower)
	require.NoError(t, w.Step(in, out))

	want := 60 + 3000*3600/(750*waterHeatCapacity)
	assert.InDelta(t, want, out.Temperature(commodity.HotWaterPower), 1e-9)
	assert.InDelta(t, 65-want, w.Cost(), 1e-9)

	// no input: only standing losses towards the ambient temperature
	out.Clear()
	require.NoError(t, w.Step(nil, out))
	assert.Less(t, out.Temperature(commodity.HotWaterPower), want)

	res, err := w.Finalize()
	require.NoError(t, err)
	assert.Len(t, res.Temperatures, 2)
	assert.Equal(t, -3000.0, res.Profile.ValueAt(commodity.HotWaterPower, 0))
}

func TestColdTankCools(t *testing.T) {
	tmpl, err := NewWaterTank(TankConfig{
		ID: tankID, Commodity: "coldwaterpower", InitialTemperature: 14, AmbientTemperature: 14,
	})
	require.NoError(t, err)
	w := tmpl.Fork()
	require.NoError(t, w.Init(simulation.Horizon{Step: 900, Slots: 1}))
	in := state.NewMap(commodity.ColdWaterPower)
	in.SetPower(commodity.ColdWaterPower, -10000)
	out := state.NewMap(commodity.ColdWaterPower)
	require.NoError(t, w.Step(in, out))
	assert.Less(t, out.Temperature(commodity.ColdWaterPower), 14.0)
	assert.True(t, w.ReactsToInputStates())
}

func TestTankConfigValidation(t *testing.T) {
	_, err := NewWaterTank(TankConfig{ID: tankID, Commodity: "activepower"})
	assert.Error(t, err)
	_, err = NewWaterTank(TankConfig{ID: "not-a-uuid"})
	assert.Error(t, err)
	_, err = NewWaterTank(TankConfig{})
	assert.Error(t, err)
}

func TestChillerNeedsDrivingHeat(t *testing.T) {
	tmpl, err := NewChiller(ChillerConfig{ID: chillID, ForcedPenalty: 1})
	require.NoError(t, err)
	c := tmpl.Fork()
	require.NoError(t, c.Init(quarterHours))
	require.NoError(t, c.Apply(boolPlan(true, true, true, true)))

	in := outMap(c)
	step := func(hot, cold float64) *state.Map {
		in.Clear()
		in.SetTemperature(commodity.HotWaterPower, hot)
		in.SetTemperature(commodity.ColdWaterPower, cold)
		out := outMap(c)
		require.NoError(t, c.Step(in, out))
		return out
	}
	out := step(70, 14)
	assert.Equal(t, -10000.0, out.Power(commodity.ColdWaterPower))
	assert.Equal(t, 16000.0, out.Power(commodity.HotWaterPower))
	assert.True(t, step(40, 14).IsEmpty(), "too cold to drive")
	assert.Equal(t, 1.0, c.Cost())
	assert.True(t, step(70, 8).IsEmpty(), "cold tank below band")
	assert.False(t, step(70, 14).IsEmpty())
}

func TestLoadReplay(t *testing.T) {
	tmpl, err := NewLoadReplay(ReplayConfig{
		ID: replayID,
		Series: map[string][]profile.Point{
			"activepower":           {{T: 0, V: 300}, {T: 1800, V: 500}},
			"domestichotwaterpower": {{T: 900, V: 2000}, {T: 1800, V: 0}},
		},
		PeriodSeconds: 3600,
		Temperature:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []commodity.Commodity{commodity.ActivePower, commodity.DomesticHotWaterPower}, tmpl.Commodities())
	assert.Nil(t, tmpl.Shapes(quarterHours))

	r := tmpl.Fork()
	h := simulation.Horizon{Start: 1000, Step: 900, Slots: 6}
	require.NoError(t, r.Init(h))
	var el, dhw []float64
	for i := 0; i < h.Slots; i++ {
		out := outMap(r)
		require.NoError(t, r.Step(nil, out))
		el = append(el, out.Power(commodity.ActivePower))
		dhw = append(dhw, out.Power(commodity.DomesticHotWaterPower))
		if out.Contains(commodity.DomesticHotWaterPower) {
			assert.Equal(t, 10.0, out.Temperature(commodity.DomesticHotWaterPower))
		}
	}
	assert.Equal(t, []float64{300, 300, 500, 500, 300, 300}, el)
	assert.Equal(t, []float64{0, 2000, 0, 0, 0, 2000}, dhw)
	assert.Error(t, r.Apply([]translate.Values{{}}))
}

func TestRegistry(t *testing.T) {
	parts, err := NewAll([]factory.ModuleConfig{
		{Type: "chp", Conf: map[string]any{"id": chpID, "electrical_power": 1000, "activation_seconds": 3600}},
		{Type: "watertank", Conf: map[string]any{"id": tankID, "volume_liters": 500}},
		{Type: "chiller", Conf: map[string]any{"id": chillID}},
		{Type: "replay", Conf: map[string]any{"id": replayID, "series": map[string]any{
			"activepower": []any{map[string]any{"t": 0, "v": 450}},
		}}},
	})
	require.NoError(t, err)
	require.Len(t, parts, 4)
	assert.IsType(t, &CHP{}, parts[0])
	assert.Equal(t, 1000.0, parts[0].(*CHP).cfg.ElectricalPower)
	assert.Equal(t, uuid.MustParse(tankID), parts[1].ID())

	forks := Fork(parts)
	for i := range parts {
		assert.NotSame(t, parts[i], forks[i])
		assert.Equal(t, parts[i].ID(), forks[i].ID())
	}

	_, err = New(factory.ModuleConfig{Type: "chp", Conf: map[string]any{"id": chpID, "power": 1}})
	assert.Error(t, err)
	_, err = New(factory.ModuleConfig{Type: "heatpump"})
	assert.Error(t, err)
	_, err = NewAll([]factory.ModuleConfig{
		{Type: "chiller", Conf: map[string]any{"id": chillID}},
		{Type: "chiller", Conf: map[string]any{"id": chillID}},
	})
	assert.ErrorContains(t, err, "duplicate id")
}
