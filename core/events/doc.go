// Package events defines the charge control events emitted on the event bus.
//
// Available event types:
//   - StateChangeEvent: controller status transition
//   - CommandEvent: charger switch command result
//   - ActivationEvent: one worker evaluation cycle
//   - PlanEvent: freshly computed charge plan
//   - ChargeSliceEvent: charged time accumulated between activations
package events
