// Package metrics defines the sinks that record the outcome of optimisation
// runs. Sinks like PromSink and InfluxSink (package infra/metrics) register
// themselves with the factory; NewResultSink combines several configured
// sinks into a MultiSink.
package metrics
