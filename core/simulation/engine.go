package simulation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/grid"
	"github.com/kilianp07/ehsim/core/logger"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/state"
)

var (
	// ErrOverlap is returned when an entity is both a relation source and a
	// relation target.
	ErrOverlap = errors.New("entity is both active and passive")
	// ErrUncategorized is returned when an entity appears in no grid.
	ErrUncategorized = errors.New("entity is neither active nor passive")
	// ErrDuplicateEntity is returned when two entities share an id.
	ErrDuplicateEntity = errors.New("duplicate entity id")
)

// Entity is a participant of the simulation. Step is called once per slot
// with the entity's input and output state. Passive entities that do not
// react to input states get a nil input.
type Entity interface {
	ID() uuid.UUID
	Commodities() []commodity.Commodity
	ReactsToInputStates() bool
	Step(in, out *state.Map) error
}

// Classification splits entities into active and passive ones.
type Classification struct {
	Active  []uuid.UUID
	Passive []uuid.UUID
}

// Classify sorts every entity into active or passive according to the grid
// relations. The entity order is preserved in both lists.
func Classify(entities []uuid.UUID, grids []grid.Grid) (Classification, error) {
	active := make(map[uuid.UUID]bool)
	passive := make(map[uuid.UUID]bool)
	for _, g := range grids {
		for _, id := range g.Producers() {
			active[id] = true
		}
		for _, id := range g.Consumers() {
			passive[id] = true
		}
	}
	var c Classification
	seen := make(map[uuid.UUID]bool, len(entities))
	for _, id := range entities {
		if seen[id] {
			return c, fmt.Errorf("%w: %s", ErrDuplicateEntity, id)
		}
		seen[id] = true
		switch {
		case active[id] && passive[id]:
			return c, fmt.Errorf("%w: %s", ErrOverlap, id)
		case active[id]:
			c.Active = append(c.Active, id)
		case passive[id]:
			c.Passive = append(c.Passive, id)
		default:
			return c, fmt.Errorf("%w: %s", ErrUncategorized, id)
		}
	}
	return c, nil
}

// Engine holds the topology of one household: the bound grids and the
// template state indexes. It is built once and then shared read-only by any
// number of concurrent runs.
type Engine struct {
	grids   []grid.Grid
	class   Classification
	active  *grid.Entities
	passive *grid.Entities
	log     logger.Logger
}

// New classifies entities, builds the state indexes and binds every grid.
// The grids must not be shared with another engine.
func New(grids []grid.Grid, entities []Entity, log logger.Logger) (*Engine, error) {
	log = logger.OrNop(log)
	ids := make([]uuid.UUID, len(entities))
	slots := make(map[uuid.UUID]*state.Slots, len(entities))
	for i, e := range entities {
		ids[i] = e.ID()
		slots[e.ID()] = state.NewSlots(e.Commodities()...)
	}
	class, err := Classify(ids, grids)
	if err != nil {
		return nil, err
	}
	newMap := func(id uuid.UUID) *state.Map { return state.NewMapWithSlots(slots[id]) }
	active, err := state.NewIndex(class.Active, state.AssignIDs(class.Active), newMap)
	if err != nil {
		return nil, err
	}
	passive, err := state.NewIndex(class.Passive, state.AssignIDs(class.Passive), newMap)
	if err != nil {
		return nil, err
	}
	for _, g := range grids {
		if err := g.Bind(active, passive); err != nil {
			return nil, err
		}
	}
	log.Debugw("engine topology", map[string]any{
		"grids":   len(grids),
		"active":  len(class.Active),
		"passive": len(class.Passive),
	})
	return &Engine{grids: grids, class: class, active: active, passive: passive, log: log}, nil
}

// Classification returns the active/passive split.
func (e *Engine) Classification() Classification { return e.class }

// Grids returns the bound grids.
func (e *Engine) Grids() []grid.Grid { return e.grids }

// NewRun prepares a run over entities, which must be exactly the entities
// the engine was built with (typically forks of them).
func (e *Engine) NewRun(entities []Entity) (*Run, error) {
	r := &Run{
		grids:      e.grids,
		actives:    make([]Entity, e.active.Len()),
		passives:   make([]Entity, e.passive.Len()),
		activeOut:  e.active.Fresh(),
		activeIn:   e.active.Fresh(),
		passiveIn:  e.passive.Fresh(),
		passiveOut: e.passive.Fresh(),
		meter:      state.NewMap(commodity.All()...),
	}
	for _, ent := range entities {
		if id, err := e.active.ID(ent.ID()); err == nil {
			if r.actives[id] != nil {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, ent.ID())
			}
			r.actives[id] = ent
			continue
		}
		id, err := e.passive.ID(ent.ID())
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUncategorized, ent.ID())
		}
		if r.passives[id] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, ent.ID())
		}
		r.passives[id] = ent
	}
	for id, ent := range r.actives {
		if ent == nil {
			return nil, fmt.Errorf("missing active entity %s: %w", e.active.Key(id), state.ErrNoMapping)
		}
	}
	for id, ent := range r.passives {
		if ent == nil {
			return nil, fmt.Errorf("missing passive entity %s: %w", e.passive.Key(id), state.ErrNoMapping)
		}
	}
	return r, nil
}

// Simulate runs entities over h and returns the meter profile.
func (e *Engine) Simulate(entities []Entity, h Horizon) (*profile.LoadProfile, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	r, err := e.NewRun(entities)
	if err != nil {
		return nil, err
	}
	meter := profile.New(h.Start, h.End())
	for slot := 0; slot < h.Slots; slot++ {
		if err := r.Step(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		meter.Record(h.SlotTime(slot), r.Meter())
	}
	e.log.Debugf("simulated %d slots of %ds", h.Slots, h.Step)
	return meter, nil
}
