package events

import "time"

// ActivationEvent summarizes a single worker activation cycle.
type ActivationEvent struct {
	Status   string
	Reason   string
	Duration time.Duration
	// Sleep is the delay until the next scheduled activation.
	Sleep  time.Duration
	Failed bool
	Time   time.Time
}
