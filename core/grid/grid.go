package grid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/state"
)

// Entities is the state index a grid reads from or writes into.
type Entities = state.Index[uuid.UUID]

// Grid combines the outputs of active entities into the inputs of passive
// entities for one energy domain, and feeds passive results back.
//
// A grid is bound once per run and is read-only afterwards; the exchange
// methods may be called from several goroutines as long as each one passes
// its own state indexes and meter.
type Grid interface {
	Name() string
	Type() Type
	Commodities() []commodity.Commodity
	// Producers returns every entity this grid claims as active.
	Producers() []uuid.UUID
	// Consumers returns every entity this grid claims as passive.
	Consumers() []uuid.UUID
	// Bind resolves relations to dense ids of the active and passive index.
	Bind(active, passive *Entities) error
	// ActiveToPassive writes the combined input of every connected passive
	// entity and the grid-boundary exchange into meter.
	ActiveToPassive(activeOut, passiveIn *Entities, meter *state.Map)
	// PassiveToActive propagates passive results back to active entities.
	PassiveToActive(passiveOut, activeIn *Entities)
}

// New builds the grid described by d.
func New(d Descriptor) (Grid, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("grid %s: %w", d.Name, err)
	}
	b, err := newBase(d)
	if err != nil {
		return nil, err
	}
	switch d.Type {
	case Electrical:
		return &ElectricalGrid{base: b}, nil
	case Thermal:
		return &ThermalGrid{base: b}, nil
	}
	return nil, fmt.Errorf("unknown grid type %q", d.Type)
}

// FromLayout builds every grid of l.
func FromLayout(l Layout) ([]Grid, error) {
	grids := make([]Grid, 0, len(l.Grids))
	for _, d := range l.Grids {
		g, err := New(d)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

type relation struct {
	source  uuid.UUID
	target  uuid.UUID
	toMeter bool
}

// sink groups the active ids feeding one passive entity (or the meter).
type sink struct {
	passive int
	sources []int
}

// feedback is one resolved active to passive relation for phase B.
type feedback struct {
	active, passive int
}

type base struct {
	name        string
	typ         Type
	commodities []commodity.Commodity
	relations   []relation

	sinks    []sink
	meterIn  []int
	feedback []feedback
}

func newBase(d Descriptor) (base, error) {
	b := base{name: d.Name, typ: d.Type, commodities: append([]commodity.Commodity(nil), d.Commodities...)}
	for _, r := range d.Relations {
		src, err := uuid.Parse(r.Source)
		if err != nil {
			return b, err
		}
		rel := relation{source: src}
		if strings.EqualFold(r.Target, Meter) {
			rel.toMeter = true
		} else if rel.target, err = uuid.Parse(r.Target); err != nil {
			return b, err
		}
		b.relations = append(b.relations, rel)
	}
	return b, nil
}

func (b *base) Name() string                       { return b.name }
func (b *base) Type() Type                         { return b.typ }
func (b *base) Commodities() []commodity.Commodity { return b.commodities }

func (b *base) Producers() []uuid.UUID {
	return unique(b.relations, func(r relation) (uuid.UUID, bool) { return r.source, true })
}

func (b *base) Consumers() []uuid.UUID {
	return unique(b.relations, func(r relation) (uuid.UUID, bool) { return r.target, !r.toMeter })
}

func (b *base) Bind(active, passive *Entities) error {
	b.sinks, b.meterIn, b.feedback = nil, nil, nil
	byPassive := make(map[int]int)
	for _, r := range b.relations {
		a, err := active.ID(r.source)
		if err != nil {
			return fmt.Errorf("grid %s: active %w", b.name, err)
		}
		if r.toMeter {
			b.meterIn = append(b.meterIn, a)
			continue
		}
		p, err := passive.ID(r.target)
		if err != nil {
			return fmt.Errorf("grid %s: passive %w", b.name, err)
		}
		pos, ok := byPassive[p]
		if !ok {
			pos = len(b.sinks)
			byPassive[p] = pos
			b.sinks = append(b.sinks, sink{passive: p})
		}
		b.sinks[pos].sources = append(b.sinks[pos].sources, a)
		b.feedback = append(b.feedback, feedback{active: a, passive: p})
	}
	return nil
}

func unique(rs []relation, pick func(relation) (uuid.UUID, bool)) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(rs))
	var out []uuid.UUID
	for _, r := range rs {
		id, ok := pick(r)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
