// Package state holds per-entity commodity state for one simulated time slot
// and the index that maps entity identities onto dense array positions.
package state
