// Package commodity defines the closed set of energy quantities exchanged
// between simulated devices. Commodities are partitioned into electrical
// ones, which carry a voltage, and thermal ones, which carry a temperature
// and a mass flow.
package commodity
