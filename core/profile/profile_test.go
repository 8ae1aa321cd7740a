package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/state"
)

func TestSetCollapsesEqualValues(t *testing.T) {
	p := New(0, 400)
	p.Set(commodity.ActivePower, 0, 100)
	p.Set(commodity.ActivePower, 100, 100)
	p.Set(commodity.ActivePower, 200, 50)
	p.Set(commodity.ActivePower, 300, 50)
	assert.Equal(t, []Point{{0, 100}, {200, 50}}, p.Points(commodity.ActivePower))

	// same timestamp replaces, and may collapse into the previous value
	p.Set(commodity.ActivePower, 200, 100)
	assert.Equal(t, []Point{{0, 100}}, p.Points(commodity.ActivePower))
}

func TestValueAtAndEnergy(t *testing.T) {
	p := New(0, 300)
	p.Set(commodity.HotWaterPower, 60, -1000)
	p.Set(commodity.HotWaterPower, 120, 0)

	assert.Equal(t, 0.0, p.ValueAt(commodity.HotWaterPower, 0))
	assert.Equal(t, -1000.0, p.ValueAt(commodity.HotWaterPower, 60))
	assert.Equal(t, -1000.0, p.ValueAt(commodity.HotWaterPower, 119))
	assert.Equal(t, 0.0, p.ValueAt(commodity.HotWaterPower, 250))
	assert.Equal(t, -60000.0, p.Energy(commodity.HotWaterPower))
	assert.Equal(t, 0.0, p.Energy(commodity.ColdWaterPower))
}

func TestCompress(t *testing.T) {
	p := New(0, 40)
	p.Set(commodity.ActivePower, 0, 100)
	p.Set(commodity.ActivePower, 10, 100.4)
	p.Set(commodity.ActivePower, 20, 100.9)
	p.Set(commodity.ActivePower, 30, 200)
	c := p.Compress(1)
	assert.Equal(t, []Point{{0, 100}, {30, 200}}, c.Points(commodity.ActivePower))
	assert.Len(t, p.Points(commodity.ActivePower), 4)
}

func TestMerge(t *testing.T) {
	a := New(0, 100)
	a.Set(commodity.ActivePower, 0, 10)
	a.Set(commodity.ActivePower, 50, 20)
	b := New(0, 100)
	b.Set(commodity.ActivePower, 25, 5)
	b.Set(commodity.NaturalGasPower, 0, 7)

	m := a.Merge(b)
	assert.Equal(t, []Point{{0, 10}, {25, 15}, {50, 25}}, m.Points(commodity.ActivePower))
	assert.Equal(t, []commodity.Commodity{commodity.ActivePower, commodity.NaturalGasPower}, m.Commodities())
	assert.Equal(t, a.Energy(commodity.ActivePower)+b.Energy(commodity.ActivePower), m.Energy(commodity.ActivePower))
}

func TestRecordSkipsLeadingZeros(t *testing.T) {
	p := New(0, 300)
	m := state.NewMap(commodity.ActivePower, commodity.HotWaterPower)

	m.SetPower(commodity.ActivePower, 0)
	p.Record(0, m)
	assert.Empty(t, p.Commodities())

	m.Clear()
	m.SetPower(commodity.ActivePower, 250)
	p.Record(100, m)
	m.Clear()
	p.Record(200, m)

	assert.Equal(t, []commodity.Commodity{commodity.ActivePower}, p.Commodities())
	assert.Equal(t, []Point{{100, 250}, {200, 0}}, p.Points(commodity.ActivePower))
	assert.Equal(t, 25000.0, p.Energy(commodity.ActivePower))
}
