// Package infra contains the technical adapters: the MQTT client, the
// statestream bridge, metrics sinks and the durable stores. These
// packages depend only on the interfaces defined in the core packages.
package infra
