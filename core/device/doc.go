// Package device implements the household device models and the step
// protocol they follow during a simulation run.
//
// Every model embeds Base, whose Lifecycle enforces Init, Step per slot and
// a single Finalize. Configured devices are templates; each evaluation works
// on forks so that concurrent runs never share running state.
package device
