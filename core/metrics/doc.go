// Package metrics defines interfaces and helpers for recording charge
// control events. Sinks like PromSink and InfluxSink record activations,
// commands and plans, and can be combined with NewMultiSink. The factory
// helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
