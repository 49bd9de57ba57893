package events

import "time"

// StateChangeEvent is published whenever the controller status changes.
type StateChangeEvent struct {
	From   string
	To     string
	Reason string
	Time   time.Time
}
