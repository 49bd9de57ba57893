package events

import "time"

// CommandEvent is published for each charger switch command or error.
type CommandEvent struct {
	Target string
	On     bool
	Err    error
	Time   time.Time
}
