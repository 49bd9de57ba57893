// Package eventbus provides a small in-process publish/subscribe bus.
//
// Publishing never blocks: subscribers whose buffer is full miss the
// event. The bus is therefore only suitable for signals that are safe
// to coalesce or drop, such as metrics samples and wake-up pings.
package eventbus

// Event is an arbitrary value carried on the untyped bus.
type Event = any

// Bus is the untyped bus used for application-wide events. Consumers
// type-switch on the received values.
type Bus = TypedBus[Event]

// New creates a new untyped Bus.
func New() *Bus { return NewTyped[Event]() }
