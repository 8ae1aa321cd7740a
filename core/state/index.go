package state

import (
	"errors"
	"fmt"
)

// ErrNoMapping is returned when a participant has no dense id assigned.
var ErrNoMapping = errors.New("no mapping for specified key")

// Index gives every participant of a simulation run a dense integer id and
// one state map. The id path is used on the hot path; the key path is meant
// for setup and ad hoc lookups.
//
// An Index is built once per run and is not safe for concurrent mutation.
type Index[K comparable] struct {
	ids    map[K]int
	keys   []K
	states []*Map
}

// AssignIDs numbers keys in order, starting at zero.
func AssignIDs[K comparable](keys []K) map[K]int {
	ids := make(map[K]int, len(keys))
	for _, k := range keys {
		if _, ok := ids[k]; !ok {
			ids[k] = len(ids)
		}
	}
	return ids
}

// NewIndex builds an index over participants. Every participant must have an
// entry in ids, and ids must be dense over the participant set. newMap
// allocates the state map of each participant.
func NewIndex[K comparable](participants []K, ids map[K]int, newMap func(K) *Map) (*Index[K], error) {
	idx := &Index[K]{
		ids:    make(map[K]int, len(participants)),
		keys:   make([]K, len(participants)),
		states: make([]*Map, len(participants)),
	}
	for _, k := range participants {
		id, ok := ids[k]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrNoMapping, k)
		}
		if id < 0 || id >= len(participants) {
			return nil, fmt.Errorf("id %d for %v outside [0,%d)", id, k, len(participants))
		}
		if idx.states[id] != nil {
			return nil, fmt.Errorf("id %d assigned twice (%v, %v)", id, idx.keys[id], k)
		}
		idx.ids[k] = id
		idx.keys[id] = k
		idx.states[id] = newMap(k)
	}
	return idx, nil
}

// Len returns the number of participants.
func (x *Index[K]) Len() int { return len(x.states) }

// At returns the state map of the participant with the given dense id.
func (x *Index[K]) At(id int) *Map { return x.states[id] }

// ID resolves the dense id of key.
func (x *Index[K]) ID(key K) (int, error) {
	id, ok := x.ids[key]
	if !ok {
		return -1, fmt.Errorf("%w: %v", ErrNoMapping, key)
	}
	return id, nil
}

// Key returns the key of a dense id.
func (x *Index[K]) Key(id int) K { return x.keys[id] }

// Keys returns the participants in id order.
func (x *Index[K]) Keys() []K {
	out := make([]K, len(x.keys))
	copy(out, x.keys)
	return out
}

// Lookup returns the state map of key through the hash path.
func (x *Index[K]) Lookup(key K) (*Map, error) {
	id, err := x.ID(key)
	if err != nil {
		return nil, err
	}
	return x.states[id], nil
}

// Fresh returns an index over the same participants with newly allocated,
// empty state maps. The key table is shared read-only, so concurrent runs
// can each take a fresh index without rebuilding the hash path.
func (x *Index[K]) Fresh() *Index[K] {
	states := make([]*Map, len(x.states))
	for i, m := range x.states {
		states[i] = NewMapWithSlots(m.slots)
	}
	return &Index[K]{ids: x.ids, keys: x.keys, states: states}
}

// ClearInnerStates clears every state map for the next exchange phase.
func (x *Index[K]) ClearInnerStates() {
	for _, m := range x.states {
		m.Clear()
	}
}
