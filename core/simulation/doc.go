// Package simulation drives a set of entities through the grids of a
// household, one time slot at a time.
//
// Entities are classified once: an entity that feeds a grid relation is
// active, one that is fed by a relation is passive. Each slot the active
// entities step first, their outputs are combined into the passive inputs
// (phase A), the passive entities step, and their outputs are fed back to
// the active inputs for the next slot (phase B).
package simulation
