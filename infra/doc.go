// Package infra holds the adapters around the simulation core: the zerolog
// logger, Prometheus and InfluxDB result sinks, the MQTT schedule publisher
// and Sentry error reporting. Core packages never import infra; the app
// package wires the two together.
package infra
