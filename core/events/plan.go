package events

import "time"

// PlanEvent is published when a new charge plan has been computed.
type PlanEvent struct {
	Slots             int
	PlannedSeconds    int
	NeededSeconds     int
	MeanPrice         float64
	MeanSelectedPrice float64
	NextStart         time.Time
	NextStop          time.Time
}
