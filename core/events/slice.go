package events

import "time"

// ChargeSliceEvent reports time spent charging since the previous
// activation, tagged with the slot price that was in effect.
type ChargeSliceEvent struct {
	Seconds float64
	Price   float64
	Time    time.Time
}
