// Package optimize searches candidate vectors of a problem.
//
// A Runner starts several algorithm instances, each on its own goroutine
// with its own random source, and joins them into a Collector. Instance
// seeds are derived from one master seed so that a run is reproducible
// independently of goroutine scheduling.
package optimize
