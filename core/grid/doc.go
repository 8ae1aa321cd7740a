// Package grid implements the energy grids that connect simulated entities.
//
// A grid is described by a Layout entry: a name, a type, the commodities it
// carries and a list of relations from an active source entity to a passive
// target entity or to the meter. Electrical grids sum powers; thermal grids
// also mix temperatures and, in the feedback phase, return the state of
// passive entities (typically storage temperatures) to the active ones.
package grid
