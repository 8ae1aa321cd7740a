package state

import "github.com/kilianp07/ehsim/core/commodity"

const noSlot = -1

// Slots is a precomputed commodity to array position table. It is immutable
// once built and may be shared between any number of maps.
type Slots struct {
	index [commodity.Count]int
	list  []commodity.Commodity
}

// NewSlots builds the slot table for the given commodities. Duplicates and
// invalid commodities are ignored.
func NewSlots(cs ...commodity.Commodity) *Slots {
	s := &Slots{}
	for i := range s.index {
		s.index[i] = noSlot
	}
	for _, c := range cs {
		if !c.Valid() || s.index[c] != noSlot {
			continue
		}
		s.index[c] = len(s.list)
		s.list = append(s.list, c)
	}
	return s
}

// Len returns the number of declared commodities.
func (s *Slots) Len() int { return len(s.list) }

// Commodities returns the declared commodities in slot order.
func (s *Slots) Commodities() []commodity.Commodity {
	out := make([]commodity.Commodity, len(s.list))
	copy(out, s.list)
	return out
}

func (s *Slots) slot(c commodity.Commodity) int {
	if !c.Valid() {
		return noSlot
	}
	return s.index[c]
}

// Map holds the power and auxiliary values of every commodity an entity can
// report for one time slot. Values survive Clear; only the presence flags
// and the modification counter are reset, so a map can be reused across
// steps without reallocating.
//
// For electrical commodities the first auxiliary value is the voltage, for
// thermal commodities it is the temperature and the second one is the mass
// flow.
type Map struct {
	slots   *Slots
	present []bool
	power   []float64
	aux1    []float64
	aux2    []float64
	mods    int
}

// NewMap allocates a map for the given commodities.
func NewMap(cs ...commodity.Commodity) *Map {
	return NewMapWithSlots(NewSlots(cs...))
}

// NewMapWithSlots allocates a map using a shared slot table.
func NewMapWithSlots(s *Slots) *Map {
	n := s.Len()
	return &Map{
		slots:   s,
		present: make([]bool, n),
		power:   make([]float64, n),
		aux1:    make([]float64, n),
		aux2:    make([]float64, n),
	}
}

// Slots returns the slot table backing the map.
func (m *Map) Slots() *Slots { return m.slots }

// Declares reports whether c has a slot in this map.
func (m *Map) Declares(c commodity.Commodity) bool { return m.slots.slot(c) != noSlot }

// Contains reports whether c has been written since the last Clear.
func (m *Map) Contains(c commodity.Commodity) bool {
	i := m.slots.slot(c)
	return i != noSlot && m.present[i]
}

// IsEmpty reports whether nothing was written since the last Clear.
func (m *Map) IsEmpty() bool { return m.mods == 0 }

// Clear drops every presence flag. Stored values are left in place.
func (m *Map) Clear() {
	for i := range m.present {
		m.present[i] = false
	}
	m.mods = 0
}

// ResetCommodity drops the presence flag of c and keeps its values.
func (m *Map) ResetCommodity(c commodity.Commodity) {
	if i := m.slots.slot(c); i != noSlot {
		m.present[i] = false
	}
}

// Power returns the power of c, or 0 if c is not declared.
func (m *Map) Power(c commodity.Commodity) float64 {
	if i := m.slots.slot(c); i != noSlot {
		return m.power[i]
	}
	return 0
}

// SetPower overwrites the power of c and marks it present.
func (m *Map) SetPower(c commodity.Commodity, v float64) {
	if i := m.slots.slot(c); i != noSlot {
		m.power[i] = v
		m.mark(i)
	}
}

// AddPower adds v to the stored power of c. The caller guarantees that c is
// present; the flag is not checked.
func (m *Map) AddPower(c commodity.Commodity, v float64) {
	if i := m.slots.slot(c); i != noSlot {
		m.power[i] += v
		m.mods++
	}
}

// SetOrAddPower accumulates v when c is present and initialises it otherwise.
func (m *Map) SetOrAddPower(c commodity.Commodity, v float64) {
	i := m.slots.slot(c)
	if i == noSlot {
		return
	}
	if m.present[i] {
		m.power[i] += v
		m.mods++
		return
	}
	m.power[i] = v
	m.mark(i)
}

// Temperature returns the temperature of a thermal commodity.
func (m *Map) Temperature(c commodity.Commodity) float64 {
	if !c.IsThermal() {
		return 0
	}
	if i := m.slots.slot(c); i != noSlot {
		return m.aux1[i]
	}
	return 0
}

// SetTemperature sets the temperature of a thermal commodity and marks it
// present. It does nothing for electrical commodities.
func (m *Map) SetTemperature(c commodity.Commodity, v float64) {
	if !c.IsThermal() {
		return
	}
	if i := m.slots.slot(c); i != noSlot {
		m.aux1[i] = v
		m.mark(i)
	}
}

// MassFlow returns the mass flow of a thermal commodity in kg/s.
func (m *Map) MassFlow(c commodity.Commodity) float64 {
	if !c.IsThermal() {
		return 0
	}
	if i := m.slots.slot(c); i != noSlot {
		return m.aux2[i]
	}
	return 0
}

// SetMassFlow sets the mass flow of a thermal commodity and marks it present.
func (m *Map) SetMassFlow(c commodity.Commodity, v float64) {
	if !c.IsThermal() {
		return
	}
	if i := m.slots.slot(c); i != noSlot {
		m.aux2[i] = v
		m.mark(i)
	}
}

// Voltage returns the voltage of an electrical commodity.
func (m *Map) Voltage(c commodity.Commodity) float64 {
	if !c.IsElectrical() {
		return 0
	}
	if i := m.slots.slot(c); i != noSlot {
		return m.aux1[i]
	}
	return 0
}

// SetVoltage sets the voltage of an electrical commodity and marks it present.
func (m *Map) SetVoltage(c commodity.Commodity, v float64) {
	if !c.IsElectrical() {
		return
	}
	if i := m.slots.slot(c); i != noSlot {
		m.aux1[i] = v
		m.mark(i)
	}
}

// Range calls fn for every present commodity in slot order.
func (m *Map) Range(fn func(c commodity.Commodity, power float64)) {
	for i, ok := range m.present {
		if ok {
			fn(m.slots.list[i], m.power[i])
		}
	}
}

// Powers returns a copy of the present powers keyed by commodity.
func (m *Map) Powers() map[commodity.Commodity]float64 {
	out := make(map[commodity.Commodity]float64, len(m.present))
	m.Range(func(c commodity.Commodity, p float64) { out[c] = p })
	return out
}

// Clone returns an independent copy sharing only the slot table.
func (m *Map) Clone() *Map {
	cp := NewMapWithSlots(m.slots)
	copy(cp.present, m.present)
	copy(cp.power, m.power)
	copy(cp.aux1, m.aux1)
	copy(cp.aux2, m.aux2)
	cp.mods = m.mods
	return cp
}

func (m *Map) mark(i int) {
	m.present[i] = true
	m.mods++
}
